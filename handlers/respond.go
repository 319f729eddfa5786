package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"pickYourSocksAPI/internal/geo"
	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusForError is the single mapping from service errors to HTTP status codes.
func statusForError(err error) int {
	var locErr *geo.LocationError
	switch {
	case errors.As(err, &locErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrSelfChallenge),
		errors.Is(err, services.ErrInvalidClaim),
		errors.Is(err, services.ErrInvalidPublicKey),
		errors.Is(err, services.ErrMessageTooLong),
		errors.Is(err, services.ErrForeignMedia):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotAllowed),
		errors.Is(err, services.ErrUploadForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrResultNotFound),
		errors.Is(err, services.ErrProfileNotFound),
		errors.Is(err, services.ErrNotificationMissing),
		errors.Is(err, services.ErrFriendRequestGone),
		errors.Is(err, services.ErrPublicKeyMissing):
		return http.StatusNotFound
	case errors.Is(err, services.ErrMatchConflict),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrResultLocked),
		errors.Is(err, services.ErrStaleMatch),
		errors.Is(err, services.ErrAlreadyVerified),
		errors.Is(err, services.ErrFriendshipExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrUploadsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrUploadTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, services.ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError hides internal failures behind a generic message.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusForError(err)
	if code == http.StatusInternalServerError {
		logging.Log.WithError(err).WithField("path", r.URL.Path).Error("Handler: unexpected error")
		respondWithError(w, code, "Internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}

// requireSession answers 401 when the auth middleware did not run.
func requireSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return session.Session{}, false
	}
	return sess, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid "+label)
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
