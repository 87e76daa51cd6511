// Package snapshot сохраняет и восстанавливает снимок состояния хранилища.
//
// Снимок — один JSON-документ под фиксированным пространством имён.
// Драйвер выбирается по схеме URI: файл (по умолчанию), postgres или redis.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jgaa-thai/restaurant-client/internal/model"
)

// Namespace — ключ, под которым хранится сериализованное состояние.
const Namespace = "jgaa:state"

// ErrNoSnapshot возвращается из Load, когда сохранённого снимка нет.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Saver сохраняет и загружает снимок состояния.
type Saver interface {
	Load(ctx context.Context) (model.State, error)
	Save(ctx context.Context, st model.State) error
	Close() error
}

// Open выбирает драйвер по схеме URI и открывает его.
func Open(ctx context.Context, uri string) (Saver, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return NewPostgres(ctx, uri)
	case strings.HasPrefix(uri, "redis://"), strings.HasPrefix(uri, "rediss://"):
		return NewRedis(ctx, uri)
	default:
		return NewFile(uri), nil
	}
}

func encode(st model.State) ([]byte, error) {
	st.Version = model.SnapshotVersion
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (model.State, error) {
	var st model.State
	if err := json.Unmarshal(data, &st); err != nil {
		return model.State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	migrate(&st)
	return st, nil
}

// migrate приводит снимок старой схемы к текущей. Восстановление best-effort:
// неизвестные версии не считаются ошибкой, недостающие поля остаются
// нулевыми значениями.
func migrate(st *model.State) {
	switch st.Version {
	case model.SnapshotVersion:
		return
	case 0:
		// Снимки до введения версионирования: форма полей совпадает,
		// достаточно проставить версию.
		st.Version = model.SnapshotVersion
	default:
		st.Version = model.SnapshotVersion
	}
}
