package cmderrors

import (
	"errors"
	"fmt"
	"log"

	"github.com/logrusorgru/aurora"
)

type userfriendly interface {
	UserFriendly()
}

// Sprint formats the error for display, user friendly errors are highlighted,
// everything else includes the type and stack.
func Sprint(err error) string {
	var (
		uerr userfriendly
	)

	switch {
	case errors.As(err, &uerr):
		return fmt.Sprint(aurora.NewAurora(true).Red("ERROR"), " ", err)
	default:
		return fmt.Sprintf("%T - [%+v]", err, err)
	}
}

// LogCause logs the error if it is not nil and returns it unchanged.
func LogCause(err error) error {
	if err == nil {
		return nil
	}

	log.Println(Sprint(err))
	return err
}
