package service

import (
	"github.com/AlibekovAA/credential-service/internal/observability/metrics"
)

const (
	resultSuccess            = "success"
	resultInvalidInput       = "invalid_input"
	resultDuplicate          = "duplicate"
	resultInvalidCredentials = "invalid_credentials"
	resultError              = "error"
)

func recordRegistration(result string) {
	metrics.RegistrationsTotal.WithLabelValues(result).Inc()
}

func recordLogin(result string) {
	metrics.LoginsTotal.WithLabelValues(result).Inc()
}

func incrementSessionTokensIssued() {
	metrics.SessionTokensIssued.Inc()
}

func recordTokenValidation(ok bool) {
	metrics.JWTValidationsTotal.Inc()
	if !ok {
		metrics.JWTValidationsFailed.Inc()
	}
}
