package display

import "errors"

var errClosed = errors.New("display closed")
