package backend

import "github.com/tbourn/barcode-lookup/internal/config"

// FromConfig builds a Client from the loaded backend settings. Missing
// credentials are not an error here; the client reports them through
// Configured and every lookup answers with a configuration error.
func FromConfig(bc config.BackendConfig) *Client {
	return New(Options{
		BaseURL:      bc.URL,
		APIKey:       bc.APIKey,
		Timeout:      bc.Timeout,
		Retries:      bc.Retries,
		RetryBackoff: bc.RetryBackoff,
	})
}
