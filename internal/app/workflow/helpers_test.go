package workflow_test

import (
	"net/http"
	"net/http/httptest"
)

func newRequest() *http.Request {
	return httptest.NewRequest("POST", "/api/admin/moderator-requests/x/approve", nil)
}
