package flows

import "context"

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Issue.Signer != nil && s.deps.Verify.Mirror != nil
}

func (s Service) Issue(ctx context.Context, userID string) IssueResult {
	return RunIssue(ctx, userID, s.deps.Issue)
}

func (s Service) Refresh(ctx context.Context, userID, presented string) RefreshResult {
	return RunRefresh(ctx, userID, presented, s.deps.Refresh)
}

func (s Service) Verify(ctx context.Context, token string) VerifyResult {
	return RunVerify(ctx, token, s.deps.Verify)
}

func (s Service) Logout(ctx context.Context, userID string) error {
	return RunLogout(ctx, userID, s.deps.Logout)
}
