package interact

import "context"

// Static answers every question the same way.
type Static struct {
	// Accept places out-of-order assets; false skips them.
	Accept bool
	// Silence trusts a month after its first accepted question.
	Silence bool
	// Comments appends metadata comments to file names.
	Comments bool
}

func (s Static) Confirm(_ context.Context, q Question) (Response, error) {
	if q.Kind == QuestionComment {
		return Response{Accepted: s.Comments}, nil
	}
	return Response{
		Accepted:       s.Accept,
		PersistSilence: s.Accept && s.Silence && q.AllowSilence,
	}, nil
}
