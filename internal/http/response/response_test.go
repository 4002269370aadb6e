package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOKAndError(t *testing.T) {
	b, err := json.Marshal(OK())
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, string(b))

	b, err = json.Marshal(Error("User not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"User not found"}`, string(b))
}

func TestValidationError(t *testing.T) {
	type request struct {
		PaymentID string `json:"paymentId" validate:"required"`
		TxID      string `json:"txid" validate:"required"`
		Memo      string `json:"memo" validate:"max=3"`
	}

	err := validator.New().Struct(request{Memo: "too long"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.False(t, resp.Success)
	assert.Equal(t, "field PaymentID is a required field, field TxID is a required field, field Memo is not a valid", resp.Message)
}

func TestJSON(t *testing.T) {
	type payload struct {
		Response
		Value int `json:"value"`
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	JSON(rec, req, http.StatusTeapot, payload{Response: OK(), Value: 7})

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"success":true,"value":7}`, rec.Body.String())
}
