package budget

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/hbudget/internal/api"
	"github.com/theirongolddev/hbudget/internal/auth"
	"github.com/theirongolddev/hbudget/internal/fakeapi"
	"github.com/theirongolddev/hbudget/internal/model"
	"github.com/theirongolddev/hbudget/internal/notify"
)

func TestStoreAgainstFakeAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := fakeapi.New("secret")
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()
	fake.BaseURL = srv.URL
	fake.Seed(model.Fields{"name": "Rent", "amount": 1200, "category": "Housing"})

	n := notify.NewStack()
	s := New(api.NewClient(srv.URL), auth.Static("secret"), n)
	ctx := context.Background()

	_, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, s.Budgets(), 1)

	require.NoError(t, s.Create(ctx, model.Fields{"name": "Food", "amount": 300}))
	require.NoError(t, s.Update(ctx, "1", model.Fields{"amount": 1250}))
	require.NoError(t, s.Remove(ctx, "2"))

	got := s.Budgets()
	require.Len(t, got, 1)
	amt, _ := got[0].Amount()
	assert.Equal(t, "1250", amt.String())
	assert.Equal(t, "Housing", got[0].Category())

	// The local cache matches the server after a round of writes.
	server := fake.Budgets()
	require.Len(t, server, 1)
	assert.Equal(t, server[0].ID, got[0].ID)

	one, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Rent", one.Name())

	err = s.UploadImage(ctx, &FileHandle{Name: "r.jpg", Reader: strings.NewReader("jpeg")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ImageURL(), srv.URL+"/uploads/"))

	err = s.UploadImage(ctx, &FileHandle{Name: "r.exe", Reader: strings.NewReader("nope")})
	require.Error(t, err)
	settled := n.Settled()
	assert.Equal(t, "Invalid file type", settled[len(settled)-1].Message)

	fake.Fail("GET /budgets", 500, "database is locked")
	_, err = s.List(ctx)
	require.Error(t, err)
	settled = n.Settled()
	assert.Equal(t, "Failed to fetch budgets.", settled[len(settled)-1].Message)
	assert.Len(t, s.Budgets(), 1)
}

func TestStoreAgainstFakeAPI_WrongToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fake := fakeapi.New("secret")
	srv := httptest.NewServer(fake.Handler())
	defer srv.Close()

	n := notify.NewStack()
	s := New(api.NewClient(srv.URL), auth.Static("stale"), n)

	_, err := s.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, fake.Requests("GET /budgets"))
	assert.Len(t, n.Settled(), 1)
}
