package adb

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/flutterfly/devbridge/pkg/domain"
	"github.com/flutterfly/devbridge/pkg/parser"
)

var validate = validator.New()

// endpoint is a connect target as typed by the user
type endpoint struct {
	Host string `validate:"required,ip|hostname_rfc1123"`
	Port int    `validate:"min=1,max=65535"`
}

// validateEndpoint rejects blank, malformed or out-of-range connect targets
// before any command is built
func validateEndpoint(op, host, port string) error {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)

	if host == "" {
		return domain.NewInvalidArgument(op, "address", "must not be empty")
	}
	p, err := validatePort(op, port)
	if err != nil {
		return err
	}

	// hostname_rfc1123 accepts 999.1.1.1, so dotted numbers must be a real IPv4
	if isDottedNumeric(host) && !parser.IsIPv4(host) {
		return domain.NewInvalidArgument(op, "host", "invalid IPv4 address "+strconv.Quote(host))
	}

	if err := validate.Struct(endpoint{Host: host, Port: p}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return domain.NewInvalidArgument(op, strings.ToLower(verrs[0].Field()), "invalid value "+strconv.Quote(host))
		}
		return domain.NewInvalidArgument(op, "address", err.Error())
	}
	return nil
}

func isDottedNumeric(host string) bool {
	return strings.Contains(host, ".") && strings.Trim(host, "0123456789.") == ""
}

// validatePort parses a TCP port in 1..65535
func validatePort(op, port string) (int, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		return 0, domain.NewInvalidArgument(op, "port", "must not be empty")
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return 0, domain.NewInvalidArgument(op, "port", "must be a number")
	}
	if err := validate.Var(p, "min=1,max=65535"); err != nil {
		return 0, domain.NewInvalidArgument(op, "port", "must be between 1 and 65535")
	}
	return p, nil
}

// IsPackageFile returns true if the path appears to be an installable package (.apk)
func IsPackageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".apk"
}
