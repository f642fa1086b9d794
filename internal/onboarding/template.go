// Package onboarding хранит стандартный шаблон адаптации нового сотрудника:
// набор задач и расписание первого рабочего дня.
package onboarding

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"time"

	"github.com/headoffice-api/internal/domain"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
)

//go:embed defaults.yaml
var defaultTemplate []byte

var startTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type TaskTemplate struct {
	Title               string `yaml:"title"`
	Description         string `yaml:"description"`
	Category            string `yaml:"category"`
	RequiredBeforeStart bool   `yaml:"required_before_start"`
	DueOffsetDays       int    `yaml:"due_offset_days"`
}

type DayOneTemplate struct {
	StartTime   string `yaml:"start_time"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Location    string `yaml:"location"`
}

// Template - шаблон адаптации
type Template struct {
	Tasks  []TaskTemplate   `yaml:"tasks"`
	DayOne []DayOneTemplate `yaml:"day_one"`
}

// Parse разбирает и проверяет шаблон в формате YAML
func Parse(data []byte) (Template, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Template{}, fmt.Errorf("onboarding: template is empty")
	}
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("onboarding: decode template: %w", err)
	}
	if err := tpl.validate(); err != nil {
		return Template{}, err
	}
	return tpl, nil
}

// Default возвращает встроенный шаблон
func Default() (Template, error) {
	return Parse(defaultTemplate)
}

func (t Template) validate() error {
	for i, task := range t.Tasks {
		if task.Title == "" {
			return fmt.Errorf("onboarding: task %d has no title", i)
		}
	}
	for i, item := range t.DayOne {
		if item.Title == "" {
			return fmt.Errorf("onboarding: day-one item %d has no title", i)
		}
		if !startTimePattern.MatchString(item.StartTime) {
			return fmt.Errorf("onboarding: day-one item %q has invalid start_time %q", item.Title, item.StartTime)
		}
	}
	return nil
}

// BuildTasks создаёт задачи кандидата. Срок задачи считается от даты выхода;
// если дата не известна, срок не задаётся.
func (t Template) BuildTasks(tenantID, candidateID int64, startDate *time.Time) []domain.OnboardingTask {
	tasks := make([]domain.OnboardingTask, 0, len(t.Tasks))
	for _, tpl := range t.Tasks {
		task := domain.OnboardingTask{
			TenantID:            tenantID,
			CandidateID:         candidateID,
			Title:               tpl.Title,
			Description:         tpl.Description,
			Category:            tpl.Category,
			RequiredBeforeStart: tpl.RequiredBeforeStart,
			Status:              domain.TaskPending,
		}
		if startDate != nil {
			due := datatypes.Date(startDate.AddDate(0, 0, tpl.DueOffsetDays))
			task.DueDate = &due
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// BuildDayOne создаёт расписание первого дня в порядке шаблона
func (t Template) BuildDayOne(tenantID, candidateID int64) []domain.DayOneItem {
	items := make([]domain.DayOneItem, 0, len(t.DayOne))
	for i, tpl := range t.DayOne {
		items = append(items, domain.DayOneItem{
			TenantID:    tenantID,
			CandidateID: candidateID,
			StartTime:   tpl.StartTime,
			Title:       tpl.Title,
			Description: tpl.Description,
			Location:    tpl.Location,
			SortOrder:   i + 1,
		})
	}
	return items
}
