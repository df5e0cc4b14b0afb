package helpdesk

import (
	"errors"
	"fmt"
)

// ErrNoMediaBytes means none of a MediaSource's candidate origins
// produced bytes: no download hook, no URL, no base64.
var ErrNoMediaBytes = errors.New("helpdesk: no media bytes available for send")

func errNotFound(kind string, id int64) error {
	return fmt.Errorf("helpdesk: %s %d not found", kind, id)
}
