package stripe

import "github.com/filmeja/backend/internal/domain"

// newAPIError преобразует ошибку API Stripe в доменную ошибку внешнего сервиса
func newAPIError(errResp *ErrorResponse, statusCode int) error {
	code := errResp.Code
	if code == "" {
		code = errResp.Type
	}
	return domain.NewExternalServiceError("stripe", code, errResp.Message, statusCode, nil)
}
