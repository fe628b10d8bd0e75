package handler

import (
	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/model"
)

type attachmentRequest struct {
	Type string `json:"type" validate:"required"`
	URL  string `json:"url" validate:"required"`
	Name string `json:"name"`
	Size int64  `json:"size" validate:"gte=0"`
}

type contextRequest struct {
	Type      string `json:"type" validate:"required,contexttype"`
	CourseID  string `json:"courseId"`
	TopicID   string `json:"topicId"`
	LessonID  string `json:"lessonId"`
	ContentID string `json:"contentId"`
	Title     string `json:"title"`
}

type sendMessageRequest struct {
	Content         string              `json:"content"`
	Formatting      model.Formatting    `json:"formatting"`
	ReplyToID       string              `json:"replyToId"`
	Context         *contextRequest     `json:"context"`
	Attachments     []attachmentRequest `json:"attachments" validate:"max=20,dive"`
	ClientMessageID string              `json:"clientMessageId" validate:"max=200"`
}

func (req *sendMessageRequest) input(idempotencyKey string) chat.SendInput {
	in := chat.SendInput{
		Content:        req.Content,
		Formatting:     req.Formatting,
		ReplyToID:      req.ReplyToID,
		IdempotencyKey: idempotencyKey,
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = req.ClientMessageID
	}
	if req.Context != nil {
		in.Context = &model.ContextLink{
			Type:      model.ContextType(req.Context.Type),
			CourseID:  req.Context.CourseID,
			TopicID:   req.Context.TopicID,
			LessonID:  req.Context.LessonID,
			ContentID: req.Context.ContentID,
			Title:     req.Context.Title,
		}
	}
	for _, a := range req.Attachments {
		in.Attachments = append(in.Attachments, model.Attachment{Type: a.Type, URL: a.URL, Name: a.Name, Size: a.Size})
	}
	return in
}

type createChatRequest struct {
	Name           string              `json:"name" validate:"max=200"`
	Type           string              `json:"type" validate:"required,chattype"`
	Category       string              `json:"category" validate:"category"`
	Color          string              `json:"color" validate:"max=32"`
	ParticipantIDs []string            `json:"participantIds" validate:"required,min=1,max=500"`
	CourseID       string              `json:"courseId"`
	InitialMessage *sendMessageRequest `json:"initialMessage"`
}

func (req *createChatRequest) input() chat.CreateChatInput {
	in := chat.CreateChatInput{
		Name:           req.Name,
		Type:           model.ChatType(req.Type),
		Category:       model.Category(req.Category),
		Color:          req.Color,
		ParticipantIDs: req.ParticipantIDs,
		CourseID:       req.CourseID,
	}
	if req.InitialMessage != nil {
		msg := req.InitialMessage.input("")
		in.InitialMessage = &msg
	}
	return in
}

type updateChatRequest struct {
	Name     *string             `json:"name" validate:"omitempty,max=200"`
	Category *string             `json:"category" validate:"omitempty,category"`
	Color    *string             `json:"color" validate:"omitempty,max=32"`
	Settings *chat.SettingsPatch `json:"settings"`
}

func (req *updateChatRequest) input() chat.UpdateChatInput {
	in := chat.UpdateChatInput{Name: req.Name, Color: req.Color, Settings: req.Settings}
	if req.Category != nil {
		c := model.Category(*req.Category)
		in.Category = &c
	}
	return in
}

type editMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

type reactionRequest struct {
	Emoji string `json:"emoji" validate:"required,max=64"`
}

type supportChatRequest struct {
	Category string `json:"category" validate:"required,supportcategory"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required"`
}

type supportStatusRequest struct {
	Status     *string `json:"status" validate:"omitempty,reviewstatus"`
	Notes      *string `json:"notes" validate:"omitempty,max=5000"`
	AssignedTo *string `json:"assignedTo"`
}

func (req *supportStatusRequest) update() chat.StatusUpdate {
	u := chat.StatusUpdate{Notes: req.Notes, AssignedTo: req.AssignedTo}
	if req.Status != nil {
		s := model.ReviewStatus(*req.Status)
		u.Status = &s
	}
	return u
}
