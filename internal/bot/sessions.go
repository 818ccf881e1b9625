package bot

import (
	"sync"

	"travelplanner/internal/model"
)

// session последняя выдача поиска в чате.
type session struct {
	query   string
	results model.Recommendations
}

// sessions хранит состояние диалогов по ID чата.
type sessions struct {
	mu    sync.Mutex
	chats map[int64]session
}

func newSessions() *sessions {
	return &sessions{chats: make(map[int64]session)}
}

// Save запоминает выдачу, заменяя предыдущую.
func (s *sessions) Save(chatID int64, query string, results model.Recommendations) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats[chatID] = session{query: query, results: results}
}

// Result возвращает место из последней выдачи чата по его номеру.
func (s *sessions) Result(chatID int64, i int) (model.Recommendation, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.chats[chatID]
	if !ok || i < 0 || i >= len(sess.results) {
		return model.Recommendation{}, "", false
	}
	return sess.results[i], sess.query, true
}

// Reset забывает выдачу чата.
func (s *sessions) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chats, chatID)
}
