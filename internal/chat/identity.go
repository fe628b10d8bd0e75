package chat

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/model"
)

// CreateChatInput is the body of a generic chat creation.
type CreateChatInput struct {
	Name           string
	Type           model.ChatType
	Category       model.Category
	Color          string
	ParticipantIDs []string
	CourseID       string
	InitialMessage *SendInput
}

// SupportChatInput opens a complaint or suggestion ticket.
type SupportChatInput struct {
	Category model.Category
	Subject  string
	Message  string
}

// CreateChat creates a chat, or returns the existing direct chat between the
// actor and the single other participant. created is false in the latter case.
func (s *Service) CreateChat(ctx context.Context, actor model.Actor, in CreateChatInput) (*model.ChatView, bool, error) {
	if len(in.ParticipantIDs) == 0 {
		return nil, false, apperr.Validation("participantIds must not be empty")
	}
	if !in.Type.Valid() {
		return nil, false, apperr.Validation("invalid chat type %q", string(in.Type))
	}
	if in.Category == "" {
		in.Category = model.CategoryGeneral
	}
	if !in.Category.Valid() {
		return nil, false, apperr.Validation("invalid category %q", string(in.Category))
	}

	others := dedupe(in.ParticipantIDs, actor.ID)
	if err := s.resolveUsers(ctx, others); err != nil {
		return nil, false, err
	}

	if in.Type == model.ChatTypeDirect {
		if len(others) != 1 {
			return nil, false, apperr.Validation("a direct chat needs exactly one other participant")
		}
		if in.Category.IsSupport() {
			return nil, false, apperr.Validation("direct chats cannot be %s tickets", in.Category)
		}
		existing, err := s.store.FindDirect(ctx, actor.ID, others[0])
		switch {
		case err == nil:
			s.heal(ctx, existing)
			return view(existing, actor.ID), false, nil
		case !errors.Is(err, ErrNotFound):
			return nil, false, storeErr("chat.findDirect", "chat", err)
		}
	}

	now := s.now()
	c := &model.Chat{
		ID:             s.newID(),
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		Category:       in.Category,
		Color:          strings.TrimSpace(in.Color),
		CreatedBy:      actor.ID,
		Settings:       model.DefaultSettings(),
		PinnedMessages: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if c.Color == "" {
		c.Color = model.DefaultColor
	}
	c.Participants = append(c.Participants, model.Participant{UserID: actor.ID, Role: model.ChatRoleAdmin, JoinedAt: now})
	for _, id := range others {
		c.Participants = append(c.Participants, model.Participant{UserID: id, Role: model.ChatRoleMember, JoinedAt: now})
	}

	if c.Category.IsSupport() {
		if err := s.addAdmins(ctx, c, now); err != nil {
			return nil, false, err
		}
		c.AdminReview = model.NewAdminReview()
	}

	if in.CourseID != "" {
		if err := s.resolveCourse(ctx, in.CourseID); err != nil {
			return nil, false, err
		}
		c.CourseID = in.CourseID
	}

	if in.InitialMessage != nil {
		m, err := s.newMessage(ctx, actor, c, *in.InitialMessage)
		if err != nil {
			return nil, false, err
		}
		c.Messages = append(c.Messages, *m)
		c.LastMessage = model.NewLastMessage(m)
	}

	if c.Type == model.ChatTypeDirect {
		got, created, err := s.store.CreateDirect(ctx, c, actor.ID, others[0])
		if err != nil {
			return nil, false, storeErr("chat.createDirect", "chat", err)
		}
		return view(got, actor.ID), created, nil
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, false, storeErr("chat.create", "chat", err)
	}
	logger.With("chat", c.ID, "actor", actor.ID).Debugf("chat created type=%s category=%s", c.Type, c.Category)
	return view(c, actor.ID), true, nil
}

// CreateSupportChat opens a ticket between actor and every platform admin.
func (s *Service) CreateSupportChat(ctx context.Context, actor model.Actor, in SupportChatInput) (*model.ChatView, error) {
	if !in.Category.IsSupport() {
		return nil, apperr.Validation("category must be complaint or suggestion")
	}
	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		return nil, apperr.Validation("subject is required")
	}
	if strings.TrimSpace(in.Message) == "" {
		return nil, apperr.Validation("message is required")
	}

	now := s.now()
	c := &model.Chat{
		ID:             s.newID(),
		Name:           subject,
		Type:           model.ChatTypeSupport,
		Category:       in.Category,
		Color:          model.DefaultColor,
		Participants:   []model.Participant{{UserID: actor.ID, Role: model.ChatRoleMember, JoinedAt: now}},
		CreatedBy:      actor.ID,
		Settings:       model.DefaultSettings(),
		AdminReview:    model.NewAdminReview(),
		PinnedMessages: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.addAdmins(ctx, c, now); err != nil {
		return nil, err
	}

	m, err := s.newMessage(ctx, actor, c, SendInput{Content: in.Message})
	if err != nil {
		return nil, err
	}
	c.Messages = []model.Message{*m}
	c.LastMessage = model.NewLastMessage(m)

	if err := s.store.Create(ctx, c); err != nil {
		return nil, storeErr("chat.createSupport", "chat", err)
	}
	logger.With("chat", c.ID, "actor", actor.ID).Infof("support ticket opened category=%s admins=%d", c.Category, len(c.Participants)-1)
	return view(c, actor.ID), nil
}

// addAdmins appends every platform admin not yet in c. The same policy
// serves both creation paths so every ticket is visible to all admins.
func (s *Service) addAdmins(ctx context.Context, c *model.Chat, now time.Time) error {
	admins, err := s.dir.ListByRole(ctx, model.RoleAdmin)
	if err != nil {
		logger.Errorf("directory list admins: %v", err)
		return apperr.Persistence("directory.listByRole", err)
	}
	if len(admins) == 0 {
		logger.With("chat", c.ID).Warnf("no platform admins to attach to ticket")
	}
	for _, a := range admins {
		if c.HasParticipant(a.ID) {
			continue
		}
		c.Participants = append(c.Participants, model.Participant{UserID: a.ID, Role: model.ChatRoleAdmin, JoinedAt: now})
	}
	return nil
}

// resolveUsers fails with a validation error listing every unknown id.
func (s *Service) resolveUsers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.dir.GetUsers(ctx, ids)
	if err != nil {
		logger.Errorf("directory get users: %v", err)
		return apperr.Persistence("directory.getUsers", err)
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperr.Validation("unknown participants").WithDetails(map[string]any{"participantIds": missing})
	}
	return nil
}

func (s *Service) resolveCourse(ctx context.Context, id string) error {
	if s.catalog == nil {
		return apperr.Validation("course %q not found", id)
	}
	if _, err := s.catalog.GetCourse(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.Validation("course %q not found", id)
		}
		logger.Errorf("catalog get course: %v", err)
		return apperr.Persistence("catalog.getCourse", err)
	}
	return nil
}

// dedupe trims ids, drops blanks and self, and keeps first-seen order.
func dedupe(ids []string, self string) []string {
	seen := map[string]bool{self: true}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func view(c *model.Chat, userID string) *model.ChatView {
	return &model.ChatView{Chat: *c, UnreadCount: UnreadCount(c, userID)}
}
