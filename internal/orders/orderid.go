package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderID produit un identifiant au format ORD-AAAAMMJJ-XXXXXX.
// Il sert à la fois de clé primaire, de clé d'idempotence et de référence
// côté providers. Normalement généré côté client ; le serveur sait en
// produire un pour les tests et les commandes internes.
func GenerateOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return "ORD-" + now.Format("20060102") + "-" + suffix
}
