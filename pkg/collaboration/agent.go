package collaboration

import (
	"encoding/json"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const agentsPath = ".mem/agents.json"

// Agent is one registered identity contributing to the repository.
type Agent struct {
	ID        string            `json:"agent_id"`
	Name      string            `json:"name"`
	PublicKey string            `json:"public_key,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Registry persists agent identities at .mem/agents.json.
type Registry struct {
	adapter storageadapter.Adapter
}

// NewRegistry creates a Registry over adapter.
func NewRegistry(adapter storageadapter.Adapter) *Registry {
	return &Registry{adapter: adapter}
}

type agentsFile struct {
	Agents map[string]Agent `json:"agents"`
}

func (r *Registry) load() (agentsFile, error) {
	var f agentsFile
	f.Agents = make(map[string]Agent)
	if !r.adapter.Exists(agentsPath) {
		return f, nil
	}
	data, err := r.adapter.Read(agentsPath)
	if err != nil {
		return f, err
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return agentsFile{}, memerrs.Wrap(memerrs.ErrIntegrity, "decode agent registry", err)
	}
	if f.Agents == nil {
		f.Agents = make(map[string]Agent)
	}
	return f, nil
}

func (r *Registry) save(f agentsFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrIntegrity, "encode agent registry", err)
	}
	return r.adapter.Write(agentsPath, data)
}

// Register adds or replaces agentID's identity.
func (r *Registry) Register(agentID, name, publicKey string, now time.Time) (Agent, error) {
	f, err := r.load()
	if err != nil {
		return Agent{}, err
	}
	a := Agent{ID: agentID, Name: name, PublicKey: publicKey, CreatedAt: now}
	f.Agents[agentID] = a
	if err := r.save(f); err != nil {
		return Agent{}, err
	}
	return a, nil
}

// Get returns agentID's registered identity, or (zero, false) if
// unregistered.
func (r *Registry) Get(agentID string) (Agent, bool, error) {
	f, err := r.load()
	if err != nil {
		return Agent{}, false, err
	}
	a, ok := f.Agents[agentID]
	return a, ok, nil
}

// List returns every registered agent.
func (r *Registry) List() ([]Agent, error) {
	f, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]Agent, 0, len(f.Agents))
	for _, a := range f.Agents {
		out = append(out, a)
	}
	return out, nil
}

// Remove deregisters agentID, reporting whether it had been present.
func (r *Registry) Remove(agentID string) (bool, error) {
	f, err := r.load()
	if err != nil {
		return false, err
	}
	if _, ok := f.Agents[agentID]; !ok {
		return false, nil
	}
	delete(f.Agents, agentID)
	return true, r.save(f)
}
