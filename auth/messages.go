package auth

import (
	"context"
	"fmt"

	apperrors "github.com/jrsteele09/atreader/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

type messageKey int

const (
	msgGeneric messageKey = iota
	msgCancelled
	msgInProgress
	msgInvalidInput
	msgMissingCredential
	msgMissingCookie
	msgBadTokenResponse
	msgUnauthorized
	msgNetwork
	msgServer
	msgConfiguration
	msgStorage
)

var supportedLanguages = []language.Tag{
	language.English, // first entry is the fallback
	language.Russian,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// catalogs is indexed like supportedLanguages.
var catalogs = []map[messageKey]string{
	{
		msgGeneric:           "Something went wrong. Please try again.",
		msgCancelled:         "Sign-in was cancelled.",
		msgInProgress:        "Sign-in is already in progress.",
		msgInvalidInput:      "Please fill in all the required fields.",
		msgMissingCredential: "Your session has ended. Please sign in again.",
		msgMissingCookie:     "Sign-in was not completed on the website.",
		msgBadTokenResponse:  "The server sent an unexpected sign-in response. Please try again.",
		msgUnauthorized:      "Your session has expired or the credentials are wrong. Please sign in again.",
		msgNetwork:           "No connection to the server. Check your internet connection.",
		msgServer:            "The server returned an error (%d). Please try again later.",
		msgConfiguration:     "The app is misconfigured.",
		msgStorage:           "Could not access secure storage.",
	},
	{
		msgGeneric:           "Что-то пошло не так. Попробуйте ещё раз.",
		msgCancelled:         "Вход отменён.",
		msgInProgress:        "Вход уже выполняется.",
		msgInvalidInput:      "Заполните все обязательные поля.",
		msgMissingCredential: "Сеанс завершён. Войдите снова.",
		msgMissingCookie:     "Вход на сайте не был завершён.",
		msgBadTokenResponse:  "Сервер вернул неожиданный ответ при входе. Попробуйте ещё раз.",
		msgUnauthorized:      "Сеанс истёк или данные для входа неверны. Войдите снова.",
		msgNetwork:           "Нет соединения с сервером. Проверьте подключение к интернету.",
		msgServer:            "Сервер вернул ошибку (%d). Попробуйте позже.",
		msgConfiguration:     "Приложение настроено неверно.",
		msgStorage:           "Не удалось получить доступ к защищённому хранилищу.",
	},
}

// UserMessage turns err into a short message in the closest supported
// language. Server payloads are never included. A nil err yields "".
func UserMessage(err error, lang language.Tag) string {
	if err == nil {
		return ""
	}
	_, idx, _ := languageMatcher.Match(lang)
	catalog := catalogs[idx]

	key := classify(err)
	if key == msgServer {
		status := 0
		var apiErr *apperrors.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return fmt.Sprintf(catalog[key], status)
	}
	return catalog[key]
}

// Known reports whether err maps to a specific message rather than the
// generic fallback.
func Known(err error) bool {
	return err != nil && classify(err) != msgGeneric
}

func classify(err error) messageKey {
	var storeErr *apperrors.StoreError
	switch {
	case errors.Is(err, apperrors.ErrCancelled), errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, apperrors.ErrExchangeInProgress):
		return msgInProgress
	case errors.Is(err, apperrors.ErrInvalidInput):
		return msgInvalidInput
	case errors.Is(err, apperrors.ErrMissingCredential):
		return msgMissingCredential
	case errors.Is(err, apperrors.ErrMissingCookie):
		return msgMissingCookie
	case errors.Is(err, apperrors.ErrMalformedResponse), errors.Is(err, apperrors.ErrMissingToken):
		return msgBadTokenResponse
	case errors.Is(err, apperrors.ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, apperrors.ErrNetworkFailure), errors.Is(err, context.DeadlineExceeded):
		return msgNetwork
	case errors.Is(err, apperrors.ErrServer):
		return msgServer
	case errors.Is(err, apperrors.ErrInvalidConfiguration):
		return msgConfiguration
	case errors.As(err, &storeErr):
		return msgStorage
	}
	return msgGeneric
}
