package entity

import (
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// RecipeDraft is a recipe recovered from an assistant reply.
type RecipeDraft struct {
	Title          string   `json:"title"`
	Summary        *string  `json:"summary,omitempty"`
	PrepMinutes    *int     `json:"prep_time,omitempty"`
	Ingredients    []string `json:"ingredients"`
	Instructions   []string `json:"instructions"`
	AvailableCount int      `json:"available_ingredients"`
	TotalCount     int      `json:"total_ingredients"`
}

// ChatSession represents a chat session and the recipe attached to it.
type ChatSession struct {
	ID                   int64      `json:"id"`
	UserID               int64      `json:"user_id"`
	Title                string     `json:"title"`
	Summary              *string    `json:"summary,omitempty"`
	PrepTime             *int       `json:"prep_time,omitempty"`
	Instructions         []string   `json:"instructions"`
	Ingredients          []string   `json:"ingredients"`
	AvailableIngredients int        `json:"available_ingredients"`
	TotalIngredients     int        `json:"total_ingredients"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	DeletedAt            *time.Time `json:"-"`
}

// ApplyRecipe copies the recipe fields of d onto s, leaving identity untouched.
func (s *ChatSession) ApplyRecipe(d RecipeDraft) {
	s.Title = d.Title
	s.Summary = d.Summary
	s.PrepTime = d.PrepMinutes
	s.Ingredients = append([]string(nil), d.Ingredients...)
	s.Instructions = append([]string(nil), d.Instructions...)
	s.AvailableIngredients = d.AvailableCount
	s.TotalIngredients = d.TotalCount
}

// ChatMessage is one persisted turn of a conversation.
type ChatMessage struct {
	ID        int64                 `json:"id"`
	UserID    int64                 `json:"user_id" validate:"required,gt=0"`
	SessionID *int64                `json:"session_id,omitempty"`
	Role      constants.MessageRole `json:"role" validate:"required,role"`
	Content   string                `json:"content" validate:"required"`
	Timestamp time.Time             `json:"timestamp"`
}
