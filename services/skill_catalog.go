package services

import (
	"math"
	"sort"
	"sync"

	"game-progression-system/models"

	"gorm.io/gorm"
)

// PrereqEdge is a directed edge in the skill graph: the owning skill
// requires RequiredSkillID at RequiredLevel or higher.
type PrereqEdge struct {
	RequiredSkillID   string // skills.id (uuid)
	RequiredSkillSlug string
	RequiredLevel     int
}

// SkillCatalog is the in-memory view of the skill tables, built once at load
// and rebuilt after admin edits. Eligibility checks walk the prerequisite
// edges here instead of re-querying per request.
type SkillCatalog struct {
	mu      sync.RWMutex
	bySlug  map[string]*models.Skill
	byID    map[string]*models.Skill
	prereqs map[string][]PrereqEdge // keyed by skills.id
	ordered []*models.Skill         // category, then name
}

func NewSkillCatalog() *SkillCatalog {
	return &SkillCatalog{
		bySlug:  make(map[string]*models.Skill),
		byID:    make(map[string]*models.Skill),
		prereqs: make(map[string][]PrereqEdge),
	}
}

// Load replaces the catalog contents from the database.
func (c *SkillCatalog) Load(db *gorm.DB) error {
	var skills []models.Skill
	if err := db.Preload("Effects").Preload("Prerequisites").Find(&skills).Error; err != nil {
		return err
	}

	bySlug := make(map[string]*models.Skill, len(skills))
	byID := make(map[string]*models.Skill, len(skills))
	ordered := make([]*models.Skill, 0, len(skills))
	for i := range skills {
		s := &skills[i]
		bySlug[s.SkillID] = s
		byID[s.ID] = s
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Category != ordered[j].Category {
			return ordered[i].Category < ordered[j].Category
		}
		return ordered[i].Name < ordered[j].Name
	})

	prereqs := make(map[string][]PrereqEdge)
	for _, s := range ordered {
		for _, p := range s.Prerequisites {
			edge := PrereqEdge{RequiredSkillID: p.RequiredSkillID, RequiredLevel: p.RequiredLevel}
			if req, ok := byID[p.RequiredSkillID]; ok {
				edge.RequiredSkillSlug = req.SkillID
			}
			prereqs[s.ID] = append(prereqs[s.ID], edge)
		}
	}

	c.mu.Lock()
	c.bySlug = bySlug
	c.byID = byID
	c.prereqs = prereqs
	c.ordered = ordered
	c.mu.Unlock()
	return nil
}

func (c *SkillCatalog) Get(slug string) (*models.Skill, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.bySlug[slug]
	return s, ok
}

func (c *SkillCatalog) GetByID(id string) (*models.Skill, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.byID[id]
	return s, ok
}

// All returns the catalog ordered by category then name.
func (c *SkillCatalog) All() []*models.Skill {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.Skill, len(c.ordered))
	copy(out, c.ordered)
	return out
}

func (c *SkillCatalog) Prerequisites(skillID string) []PrereqEdge {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.prereqs[skillID]
}

// UpgradeCost is the price of going from currentLevel to currentLevel+1:
// floor(baseCost * costMultiplier^currentLevel). The multiplier compounds
// against the current level, never the target level.
func UpgradeCost(skill *models.Skill, currentLevel int) int64 {
	if currentLevel < 0 {
		currentLevel = 0
	}
	return int64(math.Floor(float64(skill.BaseCost) * math.Pow(skill.CostMultiplier, float64(currentLevel))))
}

// CanUpgrade runs the four eligibility checks against a profile's balance,
// level, and learned-skill map (keyed by skills.id). It never errors; the
// first unmet precondition comes back as (reason, detail) for the UI.
func (c *SkillCatalog) CanUpgrade(skill *models.Skill, currentLevel int, skillPoints int64, profileLevel int, userLevels map[string]int) (bool, string, string) {
	if currentLevel >= skill.MaxLevel {
		return false, UpgradeReasonMaxLevel, ""
	}
	if skillPoints < UpgradeCost(skill, currentLevel) {
		return false, UpgradeReasonInsufficientPoints, ""
	}
	if profileLevel < skill.UnlockLevel {
		return false, UpgradeReasonUnlockLevel, ""
	}
	for _, edge := range c.Prerequisites(skill.ID) {
		if userLevels[edge.RequiredSkillID] < edge.RequiredLevel {
			return false, UpgradeReasonPrerequisite, edge.RequiredSkillSlug
		}
	}
	return true, "", ""
}
