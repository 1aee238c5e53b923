// Package upstream clientes HTTP de los servicios colaboradores (catálogo e inventario).
package upstream

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/saludtotal/farmacia-ventas/internal/domain"
)

// DefaultTimeout timeout por llamada si no se configura otro.
const DefaultTimeout = 5 * time.Second

func newRestClient(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

// classify traduce el resultado de una llamada a los errores de dominio:
// transporte o timeout y 5xx → ErrUpstreamUnavailable; 404 → notFound (si no es nil);
// otros 4xx → clientErr.
func classify(service string, resp *resty.Response, err error, notFound, clientErr error) error {
	if err != nil {
		return fmt.Errorf("%s: %v: %w", service, err, domain.ErrUpstreamUnavailable)
	}
	code := resp.StatusCode()
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return nil
	case code == http.StatusNotFound && notFound != nil:
		return fmt.Errorf("%s: %w", service, notFound)
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		return fmt.Errorf("%s: respondió %d: %s: %w", service, code, snippet(resp), clientErr)
	default:
		return fmt.Errorf("%s: respondió %d: %w", service, code, domain.ErrUpstreamUnavailable)
	}
}

func snippet(resp *resty.Response) string {
	body := strings.TrimSpace(resp.String())
	if len(body) > 200 {
		return body[:200]
	}
	return body
}
