package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"account_portal/internal/feature/account/domain/entity"
	"account_portal/internal/feature/account/usecase"
)

type mockAccountFinder struct {
	FindByIDFunc func(ctx context.Context, id string) (*entity.Account, error)
	calls        int
}

func (m *mockAccountFinder) FindByID(ctx context.Context, id string) (*entity.Account, error) {
	m.calls++
	return m.FindByIDFunc(ctx, id)
}

func TestLoadAccount(t *testing.T) {
	gin.SetMode(gin.TestMode)

	account := &entity.Account{ID: "acc-1", Email: "user@example.com"}

	tests := []struct {
		name       string
		sessionID  string
		findErr    error
		wantStatus int
		wantEmail  string
		wantCalls  int
	}{
		{name: "anonymous", sessionID: "", wantStatus: http.StatusOK, wantCalls: 0},
		{name: "bound", sessionID: "acc-1", wantStatus: http.StatusOK, wantEmail: "user@example.com", wantCalls: 1},
		{name: "deleted account", sessionID: "acc-1", findErr: usecase.ErrAccountNotFound, wantStatus: http.StatusOK, wantCalls: 1},
		{name: "store failure", sessionID: "acc-1", findErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finder := &mockAccountFinder{
				FindByIDFunc: func(ctx context.Context, id string) (*entity.Account, error) {
					if tt.findErr != nil {
						return nil, tt.findErr
					}
					return account, nil
				},
			}

			r := gin.New()
			r.Use(LoadAccount(finder, func(*gin.Context) string { return tt.sessionID }))
			r.GET("/", func(c *gin.Context) {
				if a := AccountFromContext(c); a != nil {
					c.String(http.StatusOK, a.Email)
					return
				}
				c.String(http.StatusOK, "")
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, finder.calls)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantEmail, w.Body.String())
			}
		})
	}
}
