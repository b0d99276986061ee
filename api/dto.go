package api

import (
	"chat-relay/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// displayTimeLayout is the wire format for message timestamps.
const displayTimeLayout = "15:04:05"

type registerRequest struct {
	Name string `json:"name" binding:"required"`
}

type postMessageRequest struct {
	To   string `json:"to" binding:"required"`
	Text string `json:"text" binding:"required"`
	Type string `json:"type" binding:"required,msgkind"`
}

type participantResponse struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

type messageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Lang string `json:"lang,omitempty"`
	Time string `json:"time"`
}

// RegisterValidations installs the custom message-kind rule on gin's
// validator engine. Callers may only post chat and private kinds; status
// notices are reserved to the system paths.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("msgkind", func(fl validator.FieldLevel) bool {
		kind, err := domain.ParseKind(fl.Field().String())
		return err == nil && kind != domain.KindStatus
	})
}

func toParticipantResponses(participants []domain.Participant) []participantResponse {
	return lo.Map(participants, func(p domain.Participant, _ int) participantResponse {
		return participantResponse{
			Name:       p.Name,
			LastStatus: p.LastSeen.UnixMilli(),
		}
	})
}

func toMessageResponses(messages []domain.Message) []messageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) messageResponse {
		return toMessageResponse(m)
	})
}

func toMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:   m.ID.String(),
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Kind),
		Lang: m.Lang,
		Time: m.At.Format(displayTimeLayout),
	}
}
