// Package handle содержит менеджер эфемерных ссылок на бинарное содержимое.
// Ссылка (handle) — это открытый дескриптор файла блоба, пригодный для передачи
// декодеру; каждая ссылка освобождается ровно один раз.
package handle

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/hazadus/go-phono/internal/store"
)

// Handle представляет эфемерную ссылку на содержимое блоба
type Handle struct {
	id      uuid.UUID
	file    *os.File
	manager *Manager

	mutex    sync.Mutex
	released bool
}

// ID возвращает уникальный идентификатор ссылки
func (h *Handle) ID() uuid.UUID {
	return h.id
}

// Read реализует io.Reader поверх файла блоба
func (h *Handle) Read(p []byte) (int, error) {
	return h.file.Read(p)
}

// Seek реализует io.Seeker поверх файла блоба
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	return h.file.Seek(offset, whence)
}

// Close реализует io.Closer через освобождение ссылки. Декодер, получивший
// handle, закрывает его как обычный поток.
func (h *Handle) Close() error {
	h.Release()
	return nil
}

// Release освобождает ссылку. Повторный вызов безопасен и ничего не делает:
// идентичность ссылки отслеживается, двойное закрытие дескриптора исключено.
func (h *Handle) Release() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.released {
		return
	}
	h.released = true
	_ = h.file.Close()
	h.manager.forget(h.id)
}

// Released возвращает true, если ссылка уже освобождена
func (h *Handle) Released() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.released
}

// Manager создает и учитывает живые ссылки. Учет нужен, чтобы утечка
// неосвобожденной ссылки была видимой, а не тихой.
type Manager struct {
	mutex sync.Mutex
	live  map[uuid.UUID]*Handle
}

// NewManager создает новый менеджер ссылок
func NewManager() *Manager {
	return &Manager{
		live: make(map[uuid.UUID]*Handle),
	}
}

// Materialize открывает содержимое блоба и возвращает живую ссылку на него.
// Байты не копируются.
func (m *Manager) Materialize(blob store.Blob) (*Handle, error) {
	file, err := os.Open(blob.Path)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия блоба: %w", err)
	}

	h := &Handle{
		id:      uuid.New(),
		file:    file,
		manager: m,
	}

	m.mutex.Lock()
	m.live[h.id] = h
	m.mutex.Unlock()

	return h, nil
}

// Live возвращает количество живых (неосвобожденных) ссылок
func (m *Manager) Live() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.live)
}

// ReleaseAll освобождает все живые ссылки; вызывается при завершении приложения
func (m *Manager) ReleaseAll() {
	m.mutex.Lock()
	handles := make([]*Handle, 0, len(m.live))
	for _, h := range m.live {
		handles = append(handles, h)
	}
	m.mutex.Unlock()

	for _, h := range handles {
		h.Release()
	}
}

func (m *Manager) forget(id uuid.UUID) {
	m.mutex.Lock()
	delete(m.live, id)
	m.mutex.Unlock()
}
