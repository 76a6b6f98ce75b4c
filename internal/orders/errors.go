package orders

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound — aucune ligne pour cet order id
var ErrOrderNotFound = errors.New("commande introuvable")

// ErrConfirmInProgress — une autre confirmation détient le verrou pour
// cette commande ; le client peut rejouer, l'idempotence le protège.
var ErrConfirmInProgress = errors.New("confirmation déjà en cours pour cette commande")

// ValidationError — entrée invalide, aucun effet de bord n'a eu lieu
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// PersistenceError — écriture store échouée (après rollback compensatoire
// éventuel)
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistance %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
