package bot

import "context"

type HandlerFunc func(ctx context.Context, u Update) error

type Middleware func(next HandlerFunc) HandlerFunc

// RequireAuth lets the update through only when the conversation holds a
// claimed token. Anyone else gets the start greeting.
func RequireAuth(sessions Sessions, replier Replier) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, u Update) error {
			claimed, err := sessions.IsClaimed(ctx, u.SessionID())
			if err != nil {
				return err
			}
			if claimed {
				return next(ctx, u)
			}

			if u.IsCallback() {
				if err := replier.AnswerCallback(ctx, u.CallbackID, ""); err != nil {
					return err
				}
			}
			return replier.SendText(ctx, u.ChatID, MsgGreeting)
		}
	}
}
