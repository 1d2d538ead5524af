package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/jwt"
	"github.com/MrEthical07/goSession/session"
)

// IssueFailureKind classifies issue flow failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureSign
	IssueFailureMirror
)

// IssueResult carries the minted pair or the failure that prevented it.
type IssueResult struct {
	Failure IssueFailureKind
	Err     error
	Pair    jwt.Pair
}

// IssueDeps captures issue flow dependencies.
type IssueDeps struct {
	Signer PairIssuer
	Mirror session.Mirror
	Now    func() time.Time
}

// RunIssue mints a pair for userID and mirrors it. A pair is returned only
// once both records are stored; on mirror failure the pair is discarded.
func RunIssue(ctx context.Context, userID string, deps IssueDeps) IssueResult {
	pair, err := deps.Signer.Issue(ctx, userID)
	if err != nil {
		return IssueResult{Failure: IssueFailureSign, Err: err}
	}

	access, refresh := entries(pair, nowFunc(deps.Now))
	if err := mirrorPair(ctx, deps.Mirror, userID, access, refresh); err != nil {
		return IssueResult{Failure: IssueFailureMirror, Err: err}
	}

	return IssueResult{Pair: pair}
}
