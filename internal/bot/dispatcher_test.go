package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/memegen/memebot/internal/database"
	apperrors "github.com/memegen/memebot/internal/errors"
	"github.com/memegen/memebot/internal/model"
	"github.com/memegen/memebot/internal/repository"
	"github.com/memegen/memebot/internal/service"
)

var ctx = context.Background()

type reply struct {
	Kind    string
	ChatID  int64
	Text    string
	Choices []model.ModelChoice
}

type recordingReplier struct {
	replies []reply
	err     error
}

func (r *recordingReplier) SendText(ctx context.Context, chatID int64, text string) error {
	r.replies = append(r.replies, reply{Kind: "text", ChatID: chatID, Text: text})
	return r.err
}

func (r *recordingReplier) SendChoices(ctx context.Context, chatID int64, text string, choices []model.ModelChoice) error {
	r.replies = append(r.replies, reply{Kind: "choices", ChatID: chatID, Text: text, Choices: choices})
	return r.err
}

func (r *recordingReplier) SendPhoto(ctx context.Context, chatID int64, path string) error {
	r.replies = append(r.replies, reply{Kind: "photo", ChatID: chatID, Text: path})
	return r.err
}

func (r *recordingReplier) AnswerCallback(ctx context.Context, callbackID, text string) error {
	r.replies = append(r.replies, reply{Kind: "callback", Text: text})
	return r.err
}

func (r *recordingReplier) last() reply {
	if len(r.replies) == 0 {
		return reply{}
	}
	return r.replies[len(r.replies)-1]
}

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, modelName, text string) (string, error) {
	args := m.Called(ctx, modelName, text)
	return args.String(0), args.Error(1)
}

type mockComposer struct {
	mock.Mock
}

func (m *mockComposer) Render(ctx context.Context, text, chatID string) (string, error) {
	args := m.Called(ctx, text, chatID)
	return args.String(0), args.Error(1)
}

type fixture struct {
	dispatcher *Dispatcher
	sessions   *service.SessionService
	repo       repository.TokenRepository
	replier    *recordingReplier
	generator  *mockGenerator
	composer   *mockComposer
}

func setup(t *testing.T, tokens ...string) *fixture {
	t.Helper()
	db, err := database.Connect("sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	repo := repository.NewTokenRepository(db.DB)
	require.NoError(t, repo.InsertMany(ctx, tokens, "phi3"))

	f := &fixture{
		sessions:  service.NewSessionService(repo, "phi3"),
		repo:      repo,
		replier:   &recordingReplier{},
		generator: &mockGenerator{},
		composer:  &mockComposer{},
	}
	f.dispatcher = NewDispatcher(f.sessions, f.generator, f.composer, f.replier)
	return f
}

func (f *fixture) send(t *testing.T, chatID int64, text string) reply {
	t.Helper()
	require.NoError(t, f.dispatcher.Dispatch(ctx, Update{ChatID: chatID, Text: text}))
	return f.replier.last()
}

func (f *fixture) press(t *testing.T, chatID int64, data string) reply {
	t.Helper()
	require.NoError(t, f.dispatcher.Dispatch(ctx, Update{ChatID: chatID, CallbackID: "cb", CallbackData: data}))
	return f.replier.last()
}

func TestDispatcher_EndToEnd(t *testing.T) {
	f := setup(t, "#abc123", "#other0000000")
	const c1 = int64(1001)

	r := f.send(t, c1, "#abc123")
	assert.Equal(t, MsgAuthorized, r.Text)

	r = f.send(t, c1, "/model")
	assert.Equal(t, "choices", r.Kind)
	assert.Equal(t, MsgChooseModel, r.Text)
	require.Len(t, r.Choices, 2)
	assert.Equal(t, model.ModelLlava, r.Choices[0].Model)
	assert.Equal(t, model.ModelPhi, r.Choices[1].Model)

	r = f.press(t, c1, "phi")
	assert.Equal(t, "callback", r.Kind)
	assert.Equal(t, "Вы выбрали модель Phi", r.Text)

	stored, err := f.sessions.GetModel(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, "phi", stored)

	f.generator.On("Generate", mock.Anything, "phi", "joke about cats").Return("cats rule", nil).Once()
	f.composer.On("Render", mock.Anything, "cats rule", "1001").Return("memes/1001.jpg", nil).Once()

	r = f.send(t, c1, "joke about cats")
	assert.Equal(t, reply{Kind: "photo", ChatID: c1, Text: "memes/1001.jpg"}, r)

	f.generator.AssertExpectations(t)
	f.composer.AssertExpectations(t)
}

func TestDispatcher_Start(t *testing.T) {
	f := setup(t, "#abc123")

	r := f.send(t, 1, "/start")
	assert.Equal(t, MsgGreeting, r.Text)

	f.send(t, 1, "#abc123")
	r = f.send(t, 1, "/start")
	assert.Equal(t, MsgAlreadyAuthorized, r.Text)
}

func TestDispatcher_TokenRejections(t *testing.T) {
	f := setup(t, "#abc123", "#def456")

	t.Run("unknown token leaves state unchanged", func(t *testing.T) {
		r := f.send(t, 1, "#nope")
		assert.Equal(t, MsgInvalidToken, r.Text)

		claimed, err := f.sessions.IsClaimed(ctx, "1")
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	f.send(t, 1, "#abc123")

	t.Run("token held by another conversation", func(t *testing.T) {
		r := f.send(t, 2, "#abc123")
		assert.Equal(t, MsgTokenTaken, r.Text)

		claimed, err := f.sessions.IsClaimed(ctx, "2")
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("already authorized conversation", func(t *testing.T) {
		r := f.send(t, 1, "#def456")
		assert.Equal(t, MsgAlreadyAuthorized, r.Text)

		row, err := f.repo.FindByToken(ctx, "#def456")
		require.NoError(t, err)
		assert.False(t, row.Authorized)
	})

	t.Run("invalid token checked before authorization", func(t *testing.T) {
		r := f.send(t, 1, "#nope")
		assert.Equal(t, MsgInvalidToken, r.Text)
	})
}

func TestDispatcher_UnauthorizedGetsGreeting(t *testing.T) {
	f := setup(t, "#abc123")

	for _, text := range []string{"/stop", "/model", "joke about cats", "/help"} {
		t.Run(text, func(t *testing.T) {
			r := f.send(t, 7, text)
			assert.Equal(t, reply{Kind: "text", ChatID: 7, Text: MsgGreeting}, r)
		})
	}

	t.Run("callback", func(t *testing.T) {
		before := len(f.replier.replies)
		r := f.press(t, 7, "llava")
		assert.Equal(t, MsgGreeting, r.Text)
		require.Len(t, f.replier.replies, before+2)
		assert.Equal(t, "callback", f.replier.replies[before].Kind)
	})

	f.generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_Stop(t *testing.T) {
	f := setup(t, "#abc123")
	f.send(t, 1, "#abc123")
	f.press(t, 1, "llava")

	r := f.send(t, 1, "/stop")
	assert.Equal(t, MsgLoggedOut, r.Text)

	row, err := f.repo.FindByToken(ctx, "#abc123")
	require.NoError(t, err)
	assert.False(t, row.Authorized)
	assert.Equal(t, model.FreeSessionID, row.SessionID)
	assert.Equal(t, "phi3", row.Model)

	r = f.send(t, 2, "#abc123")
	assert.Equal(t, MsgAuthorized, r.Text)
}

func TestDispatcher_ModelSelectionPersists(t *testing.T) {
	f := setup(t, "#abc123")
	f.send(t, 1, "#abc123")

	f.generator.On("Generate", mock.Anything, "phi3", "first").Return("one", nil).Once()
	f.generator.On("Generate", mock.Anything, "llava", "second").Return("two", nil).Once()
	f.composer.On("Render", mock.Anything, mock.Anything, "1").Return("memes/1.jpg", nil)

	f.send(t, 1, "first")
	r := f.press(t, 1, "llava")
	assert.Equal(t, "Вы выбрали модель Llava", r.Text)
	f.send(t, 1, "second")

	f.generator.AssertExpectations(t)
}

func TestDispatcher_UnknownCallbackData(t *testing.T) {
	f := setup(t, "#abc123")
	f.send(t, 1, "#abc123")

	r := f.press(t, 1, "gpt")
	assert.Equal(t, reply{Kind: "callback"}, r)

	stored, err := f.sessions.GetModel(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "phi3", stored)
}

func TestDispatcher_PipelineFailures(t *testing.T) {
	t.Run("generator error sends nothing", func(t *testing.T) {
		f := setup(t, "#abc123")
		f.send(t, 1, "#abc123")
		before := len(f.replier.replies)

		f.generator.On("Generate", mock.Anything, "phi3", "cats").
			Return("", apperrors.External("ollama", errors.New("connection refused")))

		err := f.dispatcher.Dispatch(ctx, Update{ChatID: 1, Text: "cats"})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeExternal))
		assert.Len(t, f.replier.replies, before)
		f.composer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("composer error sends nothing", func(t *testing.T) {
		f := setup(t, "#abc123")
		f.send(t, 1, "#abc123")
		before := len(f.replier.replies)

		f.generator.On("Generate", mock.Anything, "phi3", "cats").Return("joke", nil)
		f.composer.On("Render", mock.Anything, "joke", "1").Return("", apperrors.Render(errors.New("no templates")))

		err := f.dispatcher.Dispatch(ctx, Update{ChatID: 1, Text: "cats"})
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRender))
		assert.Len(t, f.replier.replies, before)
	})

	t.Run("blank text is ignored", func(t *testing.T) {
		f := setup(t, "#abc123")
		f.send(t, 1, "#abc123")
		before := len(f.replier.replies)

		require.NoError(t, f.dispatcher.Dispatch(ctx, Update{ChatID: 1}))
		assert.Len(t, f.replier.replies, before)
	})
}

func TestDispatcher_ReplierError(t *testing.T) {
	f := setup(t)
	f.replier.err = errors.New("telegram down")

	err := f.dispatcher.Dispatch(ctx, Update{ChatID: 1, Text: "/start"})
	assert.EqualError(t, err, "telegram down")
}
