package chat_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/eduhub/internal/apperr"
	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/model"
	"github.com/eduhub/internal/repository/memstore"
	"github.com/eduhub/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice  = model.Actor{ID: "alice", Role: model.RoleStudent}
	bob    = model.Actor{ID: "bob", Role: model.RoleStudent}
	carol  = model.Actor{ID: "carol", Role: model.RoleInstructor}
	admin1 = model.Actor{ID: "admin1", Role: model.RoleAdmin}
	admin2 = model.Actor{ID: "admin2", Role: model.RoleAdmin}
)

type fixture struct {
	svc   *chat.Service
	store *memstore.Store
	dir   *memstore.Directory
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memstore.New(),
		dir: memstore.NewDirectory(
			model.User{ID: "alice", Role: model.RoleStudent},
			model.User{ID: "bob", Role: model.RoleStudent},
			model.User{ID: "carol", Role: model.RoleInstructor},
			model.User{ID: "admin1", Role: model.RoleAdmin},
			model.User{ID: "admin2", Role: model.RoleAdmin},
		),
		now: time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC),
	}
	var mu sync.Mutex
	seq := 0
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		f.now = f.now.Add(time.Second)
		return f.now
	}
	ids := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	catalog := memstore.NewCatalog(model.Course{ID: "go-101", Title: "Go basics"})
	f.svc = chat.NewService(f.store, f.dir, catalog,
		chat.WithClock(clock),
		chat.WithIDGenerator(ids),
		chat.WithIdempotency(memory.New(), time.Minute),
	)
	return f
}

func (f *fixture) direct(t *testing.T, a model.Actor, b string) *model.ChatView {
	t.Helper()
	v, _, err := f.svc.CreateChat(context.Background(), a, chat.CreateChatInput{
		Type:           model.ChatTypeDirect,
		ParticipantIDs: []string{b},
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) group(t *testing.T, owner model.Actor, members ...string) *model.ChatView {
	t.Helper()
	v, _, err := f.svc.CreateChat(context.Background(), owner, chat.CreateChatInput{
		Name:           "study group",
		Type:           model.ChatTypeGroup,
		ParticipantIDs: members,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) send(t *testing.T, a model.Actor, chatID, content string) *model.Message {
	t.Helper()
	m, created, err := f.svc.SendMessage(context.Background(), a, chatID, chat.SendInput{Content: content})
	require.NoError(t, err)
	require.True(t, created)
	return m
}

func TestDirectChatDedup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, created, err := f.svc.CreateChat(ctx, alice, chat.CreateChatInput{
		Type:           model.ChatTypeDirect,
		ParticipantIDs: []string{"bob"},
		InitialMessage: &chat.SendInput{Content: "hi bob"},
	})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.svc.CreateChat(ctx, bob, chat.CreateChatInput{
		Type:           model.ChatTypeDirect,
		ParticipantIDs: []string{"alice"},
		InitialMessage: &chat.SendInput{Content: "hi alice"},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 1, f.store.Len())
	stored, _ := f.store.Raw(first.ID)
	require.Len(t, stored.Messages, 1)
	assert.Equal(t, "hi bob", stored.Messages[0].Content)
}

func TestDirectChatDedupConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice, "bob"
			if i%2 == 1 {
				a, b = bob, "alice"
			}
			v, _, err := f.svc.CreateChat(ctx, a, chat.CreateChatInput{Type: model.ChatTypeDirect, ParticipantIDs: []string{b}})
			if assert.NoError(t, err) {
				ids[i] = v.ID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, f.store.Len())
}

func TestCreateChatValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name string
		in   chat.CreateChatInput
	}{
		{"no participants", chat.CreateChatInput{Type: model.ChatTypeGroup}},
		{"unknown participant", chat.CreateChatInput{Type: model.ChatTypeGroup, ParticipantIDs: []string{"bob", "ghost"}}},
		{"bad type", chat.CreateChatInput{Type: "channel", ParticipantIDs: []string{"bob"}}},
		{"bad category", chat.CreateChatInput{Type: model.ChatTypeGroup, Category: "memes", ParticipantIDs: []string{"bob"}}},
		{"direct with self", chat.CreateChatInput{Type: model.ChatTypeDirect, ParticipantIDs: []string{"alice"}}},
		{"direct with two", chat.CreateChatInput{Type: model.ChatTypeDirect, ParticipantIDs: []string{"bob", "carol"}}},
		{"direct complaint", chat.CreateChatInput{Type: model.ChatTypeDirect, Category: model.CategoryComplaint, ParticipantIDs: []string{"bob"}}},
		{"unknown course", chat.CreateChatInput{Type: model.ChatTypeCourse, ParticipantIDs: []string{"bob"}, CourseID: "nope"}},
		{"empty initial message", chat.CreateChatInput{Type: model.ChatTypeGroup, ParticipantIDs: []string{"bob"}, InitialMessage: &chat.SendInput{Content: "  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.CreateChat(ctx, alice, tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Equal(t, 0, f.store.Len())
}

func TestCreateChatParticipants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	v, created, err := f.svc.CreateChat(ctx, alice, chat.CreateChatInput{
		Type:           model.ChatTypeCourse,
		ParticipantIDs: []string{"bob", "bob", "carol", "alice"},
		CourseID:       "go-101",
		InitialMessage: &chat.SendInput{Content: "welcome"},
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{"alice", "bob", "carol"}, v.ParticipantIDs())
	assert.Equal(t, model.ChatRoleAdmin, v.Participant("alice").Role)
	assert.Equal(t, model.ChatRoleMember, v.Participant("bob").Role)
	assert.Equal(t, model.CategoryGeneral, v.Category)
	assert.Equal(t, model.DefaultColor, v.Color)
	assert.Equal(t, "go-101", v.CourseID)
	assert.Nil(t, v.AdminReview)
	require.NotNil(t, v.LastMessage)
	assert.Equal(t, "welcome", v.LastMessage.Content)
	assert.Equal(t, 0, v.UnreadCount)
}

func TestComplaintPathsAddAllAdmins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	generic, _, err := f.svc.CreateChat(ctx, alice, chat.CreateChatInput{
		Type:           model.ChatTypeGroup,
		Category:       model.CategoryComplaint,
		ParticipantIDs: []string{"carol"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol", "admin1", "admin2"}, generic.ParticipantIDs())
	require.NotNil(t, generic.AdminReview)
	assert.Equal(t, model.ReviewOpen, generic.AdminReview.Status)

	support, err := f.svc.CreateSupportChat(ctx, bob, chat.SupportChatInput{
		Category: model.CategorySuggestion,
		Subject:  "Dark mode",
		Message:  "please add dark mode",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ChatTypeSupport, support.Type)
	assert.Equal(t, "Dark mode", support.Name)
	assert.Equal(t, []string{"bob", "admin1", "admin2"}, support.ParticipantIDs())
	assert.Equal(t, model.ChatRoleMember, support.Participant("bob").Role)
	assert.Equal(t, model.ChatRoleAdmin, support.Participant("admin1").Role)
	require.Len(t, support.Messages, 1)
	assert.Equal(t, model.ReviewOpen, support.AdminReview.Status)
}

func TestCreateSupportChatValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateSupportChat(ctx, bob, chat.SupportChatInput{Category: model.CategoryQuestion, Subject: "s", Message: "m"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.CreateSupportChat(ctx, bob, chat.SupportChatInput{Category: model.CategoryComplaint, Subject: "s"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.CreateSupportChat(ctx, bob, chat.SupportChatInput{Category: model.CategoryComplaint, Message: "m"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestReactionInvolution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.direct(t, alice, "bob")
	m := f.send(t, alice, c.ID, "quiz at 5")

	_, err := f.svc.ToggleReaction(ctx, bob, c.ID, m.ID, "🔥")
	require.NoError(t, err)
	before, _ := f.store.Raw(c.ID)

	got, err := f.svc.ToggleReaction(ctx, alice, c.ID, m.ID, "👍")
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 2)

	got, err = f.svc.ToggleReaction(ctx, alice, c.ID, m.ID, "👍")
	require.NoError(t, err)
	after, _ := f.store.Raw(c.ID)
	assert.Equal(t, before.Message(m.ID).Reactions, after.Message(m.ID).Reactions)
	assert.Equal(t, before.Message(m.ID).Reactions, got.Reactions)
}

func TestReactionSharedEmoji(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.direct(t, alice, "bob")
	m := f.send(t, alice, c.ID, "hello")

	_, err := f.svc.ToggleReaction(ctx, alice, c.ID, m.ID, "👍")
	require.NoError(t, err)
	got, err := f.svc.ToggleReaction(ctx, bob, c.ID, m.ID, "👍")
	require.NoError(t, err)
	require.Len(t, got.Reactions, 1)
	assert.ElementsMatch(t, []string{"alice", "bob"}, got.Reactions[0].Users)

	got, err = f.svc.ToggleReaction(ctx, alice, c.ID, m.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, []model.Reaction{{Emoji: "👍", Users: []string{"bob"}}}, got.Reactions)

	got, err = f.svc.ToggleReaction(ctx, bob, c.ID, m.ID, "👍")
	require.NoError(t, err)
	assert.Empty(t, got.Reactions)

	_, err = f.svc.ToggleReaction(ctx, bob, c.ID, m.ID, " ")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.svc.ToggleReaction(ctx, bob, c.ID, "missing", "👍")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPinInvolution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.group(t, alice, "bob")
	m1 := f.send(t, alice, c.ID, "syllabus")
	m2 := f.send(t, bob, c.ID, "deadline friday")

	res, err := f.svc.TogglePin(ctx, bob, c.ID, m1.ID)
	require.NoError(t, err)
	assert.True(t, res.Pinned)
	assert.Equal(t, []string{m1.ID}, res.PinnedMessages)

	res, err = f.svc.TogglePin(ctx, bob, c.ID, m2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{m1.ID, m2.ID}, res.PinnedMessages)

	pinned, err := f.svc.PinnedMessages(ctx, alice, c.ID)
	require.NoError(t, err)
	require.Len(t, pinned, 2)
	assert.Equal(t, "syllabus", pinned[0].Message.Content)

	res, err = f.svc.TogglePin(ctx, alice, c.ID, m2.ID)
	require.NoError(t, err)
	assert.False(t, res.Pinned)
	assert.Equal(t, []string{m1.ID}, res.PinnedMessages)

	_, err = f.svc.TogglePin(ctx, alice, c.ID, "not-a-message")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	stored, _ := f.store.Raw(c.ID)
	assert.Equal(t, []string{m1.ID}, stored.PinnedMessages)
}

func TestUnreadAccounting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.direct(t, alice, "bob")

	unread := func(a model.Actor) int {
		list, err := f.svc.ListChats(ctx, a, chat.ListFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		return list[0].UnreadCount
	}

	f.send(t, alice, c.ID, "one")
	assert.Equal(t, 1, unread(bob))
	assert.Equal(t, 0, unread(alice))

	sum, err := f.svc.MarkRead(ctx, bob, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.UnreadCount)
	assert.Equal(t, 0, unread(bob))

	f.send(t, alice, c.ID, "two")
	f.send(t, alice, c.ID, "three")
	assert.Equal(t, 2, unread(bob))

	v, err := f.svc.GetChat(ctx, bob, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, v.UnreadCount)
	assert.Len(t, v.Messages, 3)
	assert.Equal(t, 0, unread(bob))
}

func TestSoftDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.group(t, alice, "bob", "carol")
	m := f.send(t, bob, c.ID, "wrong answer posted")

	_, err := f.svc.ToggleReaction(ctx, carol, c.ID, m.ID, "👀")
	require.NoError(t, err)

	reply, _, err := f.svc.SendMessage(ctx, carol, c.ID, chat.SendInput{Content: "what?", ReplyToID: m.ID})
	require.NoError(t, err)

	_, err = f.svc.DeleteMessage(ctx, carol, c.ID, m.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	del, err := f.svc.DeleteMessage(ctx, alice, c.ID, m.ID)
	require.NoError(t, err)
	assert.True(t, del.IsDeleted)
	assert.NotNil(t, del.DeletedAt)
	assert.Equal(t, model.DeletedMessageContent, del.Content)
	assert.Equal(t, "bob", del.SenderID)
	assert.Len(t, del.Reactions, 1)

	again, err := f.svc.DeleteMessage(ctx, bob, c.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, del.DeletedAt, again.DeletedAt)

	history, err := f.svc.History(ctx, carol, c.ID, 0, "")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, reply.ID, history[1].ID)
	require.NotNil(t, history[1].ReplyTo)
	assert.Equal(t, m.ID, history[1].ReplyTo.ID)
	assert.True(t, history[1].ReplyTo.IsDeleted)
	assert.Equal(t, model.DeletedMessageContent, history[1].ReplyTo.Content)

	got, err := f.svc.ToggleReaction(ctx, bob, c.ID, m.ID, "😅")
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 2)

	_, err = f.svc.EditMessage(ctx, bob, c.ID, m.ID, "fixed")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEditAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.group(t, alice, "bob", "carol")
	m := f.send(t, bob, c.ID, "original")

	_, err := f.svc.EditMessage(ctx, carol, c.ID, m.ID, "hacked")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = f.svc.EditMessage(ctx, alice, c.ID, m.ID, "moderated")
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	stored, _ := f.store.Raw(c.ID)
	assert.Equal(t, "original", stored.Message(m.ID).Content)
	assert.False(t, stored.Message(m.ID).IsEdited)

	edited, err := f.svc.EditMessage(ctx, bob, c.ID, m.ID, "  corrected  ")
	require.NoError(t, err)
	assert.Equal(t, "corrected", edited.Content)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)

	_, err = f.svc.EditMessage(ctx, bob, c.ID, m.ID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOutsidersSeeNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.direct(t, alice, "bob")
	m := f.send(t, alice, c.ID, "private")

	_, err := f.svc.GetChat(ctx, carol, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, _, err = f.svc.SendMessage(ctx, carol, c.ID, chat.SendInput{Content: "hi"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.EditMessage(ctx, carol, c.ID, m.ID, "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.TogglePin(ctx, carol, c.ID, m.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.svc.GetChat(ctx, alice, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSendValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.direct(t, alice, "bob")

	long := make([]rune, model.MaxMessageContentLen+1)
	for i := range long {
		long[i] = 'ы'
	}
	tests := []struct {
		name string
		in   chat.SendInput
	}{
		{"empty", chat.SendInput{Content: "   "}},
		{"too long", chat.SendInput{Content: string(long)}},
		{"dangling reply", chat.SendInput{Content: "re", ReplyToID: "nope"}},
		{"bad attachment", chat.SendInput{Attachments: []model.Attachment{{Name: "x.pdf"}}}},
		{"bad context", chat.SendInput{Content: "see", Context: &model.ContextLink{Type: "module"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.SendMessage(ctx, alice, c.ID, tt.in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	m, _, err := f.svc.SendMessage(ctx, alice, c.ID, chat.SendInput{
		Attachments: []model.Attachment{{Type: "file", URL: "https://cdn/x.pdf", Name: "x.pdf", Size: 10}},
		Context:     &model.ContextLink{Type: model.ContextLesson, CourseID: "go-101", LessonID: "l1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Go basics", m.Context.Title)
	assert.Equal(t, []model.ReadReceipt{{UserID: "alice", ReadAt: m.CreatedAt}}, m.ReadBy)
}

func TestChatListFollowsEditAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.direct(t, alice, "bob")
	older := f.send(t, bob, c.ID, "older")
	m := f.send(t, alice, c.ID, "my password is hunter2")

	lastContent := func() string {
		t.Helper()
		list, err := f.svc.ListChats(ctx, bob, chat.ListFilter{})
		require.NoError(t, err)
		require.Len(t, list, 1)
		require.NotNil(t, list[0].LastMessage)
		return list[0].LastMessage.Content
	}

	_, err := f.svc.EditMessage(ctx, alice, c.ID, m.ID, "my password is secret")
	require.NoError(t, err)
	assert.Equal(t, "my password is secret", lastContent())

	// only the message the snapshot was taken from moves it
	_, err = f.svc.DeleteMessage(ctx, bob, c.ID, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "my password is secret", lastContent())

	_, err = f.svc.DeleteMessage(ctx, alice, c.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeletedMessageContent, lastContent())

	stored, _ := f.store.Raw(c.ID)
	assert.Equal(t, m.ID, stored.LastMessage.MessageID)
	assert.Equal(t, "alice", stored.LastMessage.Sender)
}

func TestLastMessageSnapshot(t *testing.T) {
	f := newFixture(t)
	c := f.direct(t, alice, "bob")
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcdefgh "
	}
	m := f.send(t, bob, c.ID, long)

	stored, _ := f.store.Raw(c.ID)
	require.NotNil(t, stored.LastMessage)
	assert.Len(t, []rune(stored.LastMessage.Content), model.LastMessagePreviewLen)
	assert.Equal(t, "bob", stored.LastMessage.Sender)
	assert.Equal(t, m.CreatedAt, stored.LastMessage.SentAt)
	assert.Equal(t, m.CreatedAt, stored.UpdatedAt)
}

func TestSendIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.direct(t, alice, "bob")

	in := chat.SendInput{Content: "submitted", IdempotencyKey: "k-1"}
	first, created, err := f.svc.SendMessage(ctx, alice, c.ID, in)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.svc.SendMessage(ctx, alice, c.ID, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// same key from another sender is a separate send
	_, created, err = f.svc.SendMessage(ctx, bob, c.ID, in)
	require.NoError(t, err)
	assert.True(t, created)

	stored, _ := f.store.Raw(c.ID)
	assert.Len(t, stored.Messages, 2)
}

func TestStatusNormalizationOnLoad(t *testing.T) {
	ctx := context.Background()
	for legacy, want := range map[model.ReviewStatus]model.ReviewStatus{
		"pending":   model.ReviewOpen,
		"in_review": model.ReviewInProgress,
		"resolved":  model.ReviewClosed,
	} {
		t.Run(string(legacy), func(t *testing.T) {
			f := newFixture(t)
			f.store.Put(&model.Chat{
				ID:           "legacy",
				Type:         model.ChatTypeSupport,
				Category:     model.CategoryComplaint,
				Participants: []model.Participant{{UserID: "alice", Role: model.ChatRoleMember}, {UserID: "admin1", Role: model.ChatRoleAdmin}},
				CreatedBy:    "alice",
				Settings:     model.DefaultSettings(),
				AdminReview:  &model.AdminReview{Status: legacy},
			})

			v, err := f.svc.GetChat(ctx, alice, "legacy")
			require.NoError(t, err)
			assert.Equal(t, want, v.AdminReview.Status)

			stored, _ := f.store.Raw("legacy")
			assert.Equal(t, want, stored.AdminReview.Status, "stored value heals on first touch")
		})
	}
}

func TestStatusNormalizationInList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Put(&model.Chat{
		ID:           "legacy",
		Type:         model.ChatTypeSupport,
		Category:     model.CategorySuggestion,
		Participants: []model.Participant{{UserID: "admin1", Role: model.ChatRoleAdmin}},
		CreatedBy:    "admin1",
		AdminReview:  &model.AdminReview{Status: "in_review"},
	})
	list, err := f.svc.ListChats(ctx, admin1, chat.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.ReviewInProgress, list[0].AdminReview.Status)
}

func TestSupportWorkflow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket, err := f.svc.CreateSupportChat(ctx, alice, chat.SupportChatInput{
		Category: model.CategoryComplaint,
		Subject:  "Grade missing",
		Message:  "my homework grade is missing",
	})
	require.NoError(t, err)

	inProgress := model.ReviewInProgress
	sum, err := f.svc.UpdateSupportStatus(ctx, admin1, ticket.ID, chat.StatusUpdate{Status: &inProgress})
	require.NoError(t, err)
	require.NotNil(t, sum.AdminReview.AssignedTo)
	assert.Equal(t, "admin1", *sum.AdminReview.AssignedTo)
	assert.Nil(t, sum.Messages)

	closed := model.ReviewClosed
	sum, err = f.svc.UpdateSupportStatus(ctx, admin1, ticket.ID, chat.StatusUpdate{Status: &closed})
	require.NoError(t, err)
	assert.NotNil(t, sum.AdminReview.ResolvedAt)

	open := model.ReviewOpen
	sum, err = f.svc.UpdateSupportStatus(ctx, admin1, ticket.ID, chat.StatusUpdate{Status: &open})
	require.NoError(t, err)
	assert.Nil(t, sum.AdminReview.ResolvedAt)

	stored, _ := f.store.Raw(ticket.ID)
	assert.Equal(t, model.ReviewOpen, stored.AdminReview.Status)
	assert.Nil(t, stored.AdminReview.ResolvedAt)
}

func TestSupportStatusAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket, err := f.svc.CreateSupportChat(ctx, alice, chat.SupportChatInput{
		Category: model.CategoryComplaint, Subject: "s", Message: "m",
	})
	require.NoError(t, err)
	closed := model.ReviewClosed

	_, err = f.svc.UpdateSupportStatus(ctx, alice, ticket.ID, chat.StatusUpdate{Status: &closed})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = f.svc.UpdateSupportStatus(ctx, bob, ticket.ID, chat.StatusUpdate{Status: &closed})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// администратор, появившийся после создания тикета, тоже может менять статус
	late := model.Actor{ID: "admin3", Role: model.RoleAdmin}
	f.dir.Put(model.User{ID: "admin3", Role: model.RoleAdmin})
	_, err = f.svc.UpdateSupportStatus(ctx, late, ticket.ID, chat.StatusUpdate{Status: &closed})
	require.NoError(t, err)

	bogus := model.ReviewStatus("escalated")
	_, err = f.svc.UpdateSupportStatus(ctx, admin1, ticket.ID, chat.StatusUpdate{Status: &bogus})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	ghost := "ghost"
	_, err = f.svc.UpdateSupportStatus(ctx, admin1, ticket.ID, chat.StatusUpdate{AssignedTo: &ghost})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	plain := f.group(t, alice, "admin1")
	_, err = f.svc.UpdateSupportStatus(ctx, admin1, plain.ID, chat.StatusUpdate{Status: &closed})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestUpdateChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.group(t, alice, "bob")

	name := "renamed"
	_, err := f.svc.UpdateChat(ctx, bob, c.ID, chat.UpdateChatInput{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	no := false
	complaint := model.CategoryComplaint
	sum, err := f.svc.UpdateChat(ctx, alice, c.ID, chat.UpdateChatInput{
		Name:     &name,
		Category: &complaint,
		Settings: &chat.SettingsPatch{AllowReactions: &no},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", sum.Name)
	assert.False(t, sum.Settings.AllowReactions)
	assert.True(t, sum.Settings.AllowReplies)
	require.NotNil(t, sum.AdminReview)
	assert.Equal(t, model.ReviewOpen, sum.AdminReview.Status)

	stored, _ := f.store.Raw(c.ID)
	assert.Equal(t, model.CategoryComplaint, stored.Category)
	assert.Equal(t, model.DefaultColor, stored.Color)
	assert.NotNil(t, stored.AdminReview)

	m := f.send(t, bob, c.ID, "hi")
	_, err = f.svc.ToggleReaction(ctx, bob, c.ID, m.ID, "👍")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	bad := model.Category("memes")
	_, err = f.svc.UpdateChat(ctx, alice, c.ID, chat.UpdateChatInput{Category: &bad})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestArchiveAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	quiet := f.group(t, alice, "bob")
	busy := f.direct(t, alice, "carol")
	empty := f.group(t, alice, "carol")
	f.send(t, alice, quiet.ID, "old news")
	f.send(t, carol, busy.ID, "fresh news")

	list, err := f.svc.ListChats(ctx, alice, chat.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{busy.ID, quiet.ID, empty.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
	for _, s := range list {
		assert.Nil(t, s.Messages)
	}

	sum, err := f.svc.ToggleArchive(ctx, bob, quiet.ID)
	require.NoError(t, err)
	assert.True(t, sum.Settings.IsArchived)

	list, err = f.svc.ListChats(ctx, alice, chat.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.ListChats(ctx, alice, chat.ListFilter{Archived: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, quiet.ID, list[0].ID)

	list, err = f.svc.ListChats(ctx, alice, chat.ListFilter{Type: model.ChatTypeDirect})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, busy.ID, list[0].ID)

	_, err = f.svc.ListChats(ctx, alice, chat.ListFilter{Type: "channel"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	sum, err = f.svc.ToggleArchive(ctx, alice, quiet.ID)
	require.NoError(t, err)
	assert.False(t, sum.Settings.IsArchived)
}

func TestDeleteChat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.group(t, alice, "bob")

	err := f.svc.DeleteChat(ctx, bob, c.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	err = f.svc.DeleteChat(ctx, carol, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.svc.DeleteChat(ctx, alice, c.ID))
	assert.Equal(t, 0, f.store.Len())
	_, err = f.svc.GetChat(ctx, alice, c.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestHistoryPaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.direct(t, alice, "bob")
	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, f.send(t, alice, c.ID, fmt.Sprintf("m%d", i)).ID)
	}

	page, err := f.svc.History(ctx, bob, c.ID, 2, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[4], page[1].ID)

	page, err = f.svc.History(ctx, bob, c.ID, 2, ids[3])
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[1], page[0].ID)

	_, err = f.svc.History(ctx, bob, c.ID, 2, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentSendsKeepEveryMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.group(t, alice, "bob", "carol")
	target := f.send(t, alice, c.ID, "react here")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _, err := f.svc.SendMessage(ctx, bob, c.ID, chat.SendInput{Content: fmt.Sprintf("msg %d", i)})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			_, err := f.svc.ToggleReaction(ctx, carol, c.ID, target.ID, "👍")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, _ := f.store.Raw(c.ID)
	assert.Len(t, stored.Messages, 21)
	assert.Empty(t, stored.Message(target.ID).Reactions, "an even number of toggles cancels out")
}
