package iac

import (
	"encoding/json"
	"fmt"
	"io"
)

// ExternalDataFunc receives the query of a terraform external data source and
// returns the values for it. Terraform requires all returned values to be
// strings.
type ExternalDataFunc func(query map[string]string) (map[string]string, error)

// HandleExternalData implements the terraform external program protocol: it
// reads a single JSON object from stdin, calls fn with it and writes the
// result as JSON to stdout. On failure it writes the error to stderr and
// returns a non-zero exit code.
func HandleExternalData(stdin io.Reader, stdout, stderr io.Writer, fn ExternalDataFunc) int {
	query := map[string]string{}
	if err := json.NewDecoder(stdin).Decode(&query); err != nil {
		fmt.Fprintf(stderr, "could not decode query: %s", err)
		return 1
	}

	result, err := fn(query)
	if err != nil {
		fmt.Fprint(stderr, err.Error())
		return 1
	}

	if err := json.NewEncoder(stdout).Encode(result); err != nil {
		fmt.Fprintf(stderr, "could not encode result: %s", err)
		return 1
	}

	return 0
}
