package odds

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Validator struct {
	Rdb *redis.Client
}

func NewValidator(r *redis.Client) *Validator { return &Validator{Rdb: r} }

// Espera chave "odds:{marketID}:{selectionID}:{side}" => valor string com a
// melhor odd do lado, ex: "1.85" (gravada pelo odds-processor-worker).
// Cache miss devolve ("", nil); erro só quando o Redis está indisponível.
func (v *Validator) CurrentOdd(ctx context.Context, marketID, selectionID, side string) (string, error) {
	key := fmt.Sprintf("odds:%s:%s:%s", marketID, selectionID, side)
	val, err := v.Rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}
