package survey

import (
	"encoding/json"
	"log"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/storage"
)

// progressKeyPrefix is load-bearing: resumability depends on the exact
// key naming, and PurgeAll scans by this prefix.
const progressKeyPrefix = "survey_progress_"

// ProgressKey returns the storage key for one service's in-progress
// answers. The key deliberately embeds only the service ID — not the
// user — so an unsubmitted attempt survives re-login on the same device
// and is visible to whoever logs in next. The session boundary is
// responsible for calling PurgeAll on user switch.
func ProgressKey(serviceID string) string {
	return progressKeyPrefix + serviceID
}

// ProgressService persists in-progress answer maps per service so a
// respondent can resume after navigating away.
type ProgressService struct {
	kv storage.KeyValueStore
}

func NewProgressService(kv storage.KeyValueStore) *ProgressService {
	return &ProgressService{kv: kv}
}

// Load returns the saved answer map for serviceID. It never fails:
// a read error or corrupt record degrades to an empty map and is logged.
func (s *ProgressService) Load(serviceID string) map[string]string {
	raw, ok, err := s.kv.Get(ProgressKey(serviceID))
	if err != nil {
		log.Printf("progress: load %s: %v", serviceID, err)
		return map[string]string{}
	}
	if !ok || raw == "" {
		return map[string]string{}
	}
	var answers map[string]string
	if err := json.Unmarshal([]byte(raw), &answers); err != nil {
		log.Printf("progress: corrupt record for %s, starting fresh: %v", serviceID, err)
		return map[string]string{}
	}
	if answers == nil {
		return map[string]string{}
	}
	return answers
}

// Save writes the full current answer map, replacing any prior record.
// Empty maps are not persisted; a non-empty record always means an
// incomplete attempt exists.
func (s *ProgressService) Save(serviceID string, answers map[string]string) error {
	if len(answers) == 0 {
		return nil
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ProgressKey(serviceID), string(b)); err != nil {
		log.Printf("progress: save %s: %v", serviceID, err)
		return err
	}
	return nil
}

// Clear removes the saved record. Clearing a missing record is not an
// error.
func (s *ProgressService) Clear(serviceID string) error {
	if err := s.kv.Delete(ProgressKey(serviceID)); err != nil {
		log.Printf("progress: clear %s: %v", serviceID, err)
		return err
	}
	return nil
}

// PurgeAll removes every saved progress record. Invoked by the session
// collaborator on logout/user switch to stop cross-user leakage of
// unsubmitted answers on a shared device.
func (s *ProgressService) PurgeAll() error {
	keys, err := s.kv.Keys(progressKeyPrefix)
	if err != nil {
		log.Printf("progress: purge scan: %v", err)
		return err
	}
	for _, k := range keys {
		if err := s.kv.Delete(k); err != nil {
			log.Printf("progress: purge %s: %v", k, err)
			return err
		}
	}
	return nil
}
