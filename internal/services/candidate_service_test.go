package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/floorscreen/internal/models"
	pgrepo "github.com/yoockh/floorscreen/internal/repositories/postgres"
	"github.com/yoockh/floorscreen/internal/utils"
)

func newCandidateFixture(t *testing.T) (CandidateService, *fakeCandidates, *fakeSessions, *fakeResponses) {
	t.Helper()
	c, s, r := newFakeCandidates(), newFakeSessions(), &fakeResponses{}
	return NewCandidateService(c, r, s), c, s, r
}

func TestCandidateCreateAndConflict(t *testing.T) {
	svc, repo, _, _ := newCandidateFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CandidateInput{Email: " Bo@Example.com ", FirstName: "Bo", Phone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", c.Email)
	assert.Equal(t, models.CandidatePending, c.Status)
	assert.Equal(t, "555", *repo.get(c.ID).Phone)

	_, err = svc.Create(ctx, CandidateInput{Email: "bo@example.com"})
	requireCode(t, err, utils.CodeConflict)
}

func TestCandidateListPagination(t *testing.T) {
	svc, repo, _, _ := newCandidateFixture(t)
	ctx := context.Background()
	for _, e := range []string{"a@x.co", "b@x.co", "c@x.co"} {
		_, err := svc.Create(ctx, CandidateInput{Email: e})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, pgrepo.CandidateFilter{Page: 0, Limit: 2, Status: "all"})
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}, page.Pagination)
	assert.Equal(t, 2, repo.listed.Limit)

	_, err = svc.List(ctx, pgrepo.CandidateFilter{Status: "maybe"})
	requireCode(t, err, utils.CodeInvalidArgument)

	_, err = svc.List(ctx, pgrepo.CandidateFilter{Experience: "ten-ish"})
	requireCode(t, err, utils.CodeInvalidArgument)
}

func TestCandidateListEmpty(t *testing.T) {
	svc, _, _, _ := newCandidateFixture(t)
	page, err := svc.List(context.Background(), pgrepo.CandidateFilter{})
	require.NoError(t, err)
	assert.NotNil(t, page.Installers)
	assert.Equal(t, 0, page.Pagination.TotalPages)
	assert.Equal(t, 20, page.Pagination.Limit)
}

func TestCandidateGetIncludesSessionsAndResponses(t *testing.T) {
	svc, _, sessions, responses := newCandidateFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CandidateInput{Email: "d@x.co"})
	require.NoError(t, err)
	sessions.set(models.InterviewSession{SessionID: "s-1", CandidateID: c.ID, Status: models.SessionInProgress, UpdatedAt: time.Now()})
	require.NoError(t, responses.Insert(ctx, &models.InterviewResponse{ID: "r-1", SessionID: "s-1", CandidateID: c.ID, AnswerText: "yes"}))

	d, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, d.Installer.ID)
	require.Len(t, d.Sessions, 1)
	require.Len(t, d.Responses, 1)

	_, err = svc.Get(ctx, "missing")
	requireCode(t, err, utils.CodeNotFound)
}

func TestCandidateUpdate(t *testing.T) {
	svc, _, _, _ := newCandidateFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CandidateInput{Email: "e@x.co"})
	require.NoError(t, err)

	got, err := svc.Update(ctx, c.ID, CandidatePatch{Notes: strPtr("called back"), Status: strPtr("passed")})
	require.NoError(t, err)
	assert.Equal(t, models.CandidatePassed, got.Status)
	assert.Equal(t, "called back", *got.Notes)

	_, err = svc.Update(ctx, c.ID, CandidatePatch{Status: strPtr("hired")})
	requireCode(t, err, utils.CodeInvalidArgument)

	_, err = svc.Update(ctx, c.ID, CandidatePatch{})
	requireCode(t, err, utils.CodeInvalidArgument)

	_, err = svc.Update(ctx, "missing", CandidatePatch{Notes: strPtr("x")})
	requireCode(t, err, utils.CodeNotFound)
}

func TestCandidateDelete(t *testing.T) {
	svc, _, _, _ := newCandidateFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CandidateInput{Email: "f@x.co"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, c.ID))

	err = svc.Delete(ctx, c.ID)
	requireCode(t, err, utils.CodeNotFound)
}
