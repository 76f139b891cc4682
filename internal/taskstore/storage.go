package taskstore

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"taskboard/internal/tasks"
)

// Backend сохраняет список задач целиком.
//
// Service держит копию списка в памяти и пишет в Backend только готовый кандидат.
type Backend interface {
	LoadTasks(ctx context.Context) ([]tasks.Task, error)
	SaveTasks(ctx context.Context, list []tasks.Task) error
}

// FileStore хранит задачи в JSON-файле.
//
// Хранилище потокобезопасно: операции чтения/записи защищены RWMutex.
type FileStore struct {
	mu       sync.RWMutex
	filename string
}

// NewFileStore создаёт файловое хранилище задач.
func NewFileStore(filename string) *FileStore {
	return &FileStore{filename: filename}
}

// SaveTasks сохраняет задачи в файл.
func (fs *FileStore) SaveTasks(ctx context.Context, list []tasks.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeTasks(list)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	// 0644 - права доступа (rw-r--r--)
	return os.WriteFile(fs.filename, data, 0644)
}

// LoadTasks загружает задачи из файла.
//
// Отсутствующий или пустой файл означает пустой список.
func (fs *FileStore) LoadTasks(ctx context.Context) ([]tasks.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(fs.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return []tasks.Task{}, nil
		}
		return nil, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return []tasks.Task{}, nil
	}
	return decodeTasks(data)
}

func encodeTasks(list []tasks.Task) ([]byte, error) {
	out := make([]taskJSON, len(list))
	for i, t := range list {
		out[i] = toJSON(t)
	}
	return sonic.ConfigStd.MarshalIndent(out, "", "   ")
}

func decodeTasks(data []byte) ([]tasks.Task, error) {
	var stored []taskJSON
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	out := make([]tasks.Task, len(stored))
	for i, s := range stored {
		out[i] = s.task()
	}
	return out, nil
}
