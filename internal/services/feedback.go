package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// A message like "3 la comida estuvo bien" carries its score up front.
var reLeadingRating = regexp.MustCompile(`^([1-5])\b`)

var strongPositiveWords = []string{
	"excelente", "espectacular", "increible", "increíble",
	"felicitaciones", "felicitar",
}

var weakPositiveWords = []string{
	"bueno", "buena", "rico", "rica", "lindo", "linda", "bien",
}

var strongNegativeWords = []string{
	"pesimo", "pésimo", "horrible", "desastre", "asco",
}

var weakNegativeWords = []string{
	"malo", "mala", "feo", "fea", "lento", "lenta", "caro",
}

// feedbackRating maps a comment to a 1-5 score. A leading digit wins,
// then keyword strength; 0 when nothing matches.
func feedbackRating(msg string) int {
	m := clean(msg)
	if sub := reLeadingRating.FindStringSubmatch(m); sub != nil {
		n, _ := strconv.Atoi(sub[1])
		return n
	}
	switch {
	case containsAny(m, strongPositiveWords):
		return 5
	case containsAny(m, strongNegativeWords):
		return 1
	case containsAny(m, weakPositiveWords):
		return 4
	case containsAny(m, weakNegativeWords):
		return 2
	}
	return 0
}

// captureFeedback stores the comment with its score and thanks the
// guest. Mid-flow the collected slots stay put so the reservation can
// pick up where it left off.
func (d *Dialog) captureFeedback(ctx context.Context, r *models.Restaurant, sess *models.Session, msg string) (string, error) {
	f := &models.Feedback{
		RestaurantID: r.ID,
		Phone:        sess.Phone,
		Message:      strings.TrimSpace(msg),
		Rating:       feedbackRating(msg),
	}
	if err := d.store.SaveFeedback(f); err != nil {
		log.Printf("⚠️ feedback from %s not saved: %v", sess.Phone, err)
	}
	d.save(ctx, sess)

	reply := fmt.Sprintf("¡Gracias por tu comentario! 🙏 Lo compartimos con el equipo de %s.", r.Name)
	if sess.State.InDialog() {
		reply += " Cuando quieras, seguimos con tu reserva 😊"
	}
	return reply, nil
}
