package recordpolicy

import "errors"

var errNoDirectory = errors.New("recordpolicy: no directory configured")
