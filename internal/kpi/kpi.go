// Package kpi вычисляет составные показатели недельной оценки и их свежесть.
// Пакет не имеет состояния и ввода-вывода: одни и те же формулы используются
// для отдельной оценки и для квартальных трендов.
package kpi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status - цветовая классификация показателя
type Status string

const (
	StatusRed   Status = "red"
	StatusAmber Status = "amber"
	StatusGreen Status = "green"
)

var (
	hundred    = decimal.NewFromInt(100)
	half       = decimal.NewFromFloat(0.5)
	redBelow   = decimal.NewFromInt(5)
	amberBelow = decimal.NewFromFloat(6.5)
)

// Ratings - пять исходных оценок 1..10, каждая может отсутствовать
type Ratings struct {
	TasksCompleted *int
	WorkVolume     *int
	ProblemSolving *int
	Communication  *int
	Leadership     *int
}

// Inputs - входы формул; для трендов это усреднённые оценки
type Inputs struct {
	TasksCompleted *decimal.Decimal
	WorkVolume     *decimal.Decimal
	ProblemSolving *decimal.Decimal
	Communication  *decimal.Decimal
	Leadership     *decimal.Decimal
}

// Metrics - производные показатели; nil означает "не определён"
type Metrics struct {
	Velocity       *float64 `json:"velocity"`
	Friction       *float64 `json:"friction"`
	Cohesion       *float64 `json:"cohesion"`
	VelocityStatus Status   `json:"velocity_status,omitempty"`
	FrictionStatus Status   `json:"friction_status,omitempty"`
	CohesionStatus Status   `json:"cohesion_status,omitempty"`
}

// Freshness - давность последней оценки
type Freshness struct {
	Weeks  int    `json:"weeks"`
	Status Status `json:"status"`
}

// FromRatings переводит целые оценки во входы формул
func FromRatings(r Ratings) Inputs {
	return Inputs{
		TasksCompleted: fromInt(r.TasksCompleted),
		WorkVolume:     fromInt(r.WorkVolume),
		ProblemSolving: fromInt(r.ProblemSolving),
		Communication:  fromInt(r.Communication),
		Leadership:     fromInt(r.Leadership),
	}
}

// Compute считает velocity, friction и cohesion.
//
//	velocity = round2(mean(tasks_completed, work_volume, problem_solving))
//	friction = round2(mean(velocity, communication))
//	cohesion = round2(mean(problem_solving, communication, leadership))
func Compute(in Inputs) Metrics {
	velocity := mean(in.TasksCompleted, in.WorkVolume, in.ProblemSolving)
	friction := mean(velocity, in.Communication)
	cohesion := mean(in.ProblemSolving, in.Communication, in.Leadership)

	return Metrics{
		Velocity:       toFloat(velocity),
		Friction:       toFloat(friction),
		Cohesion:       toFloat(cohesion),
		VelocityStatus: classify(velocity),
		FrictionStatus: classify(friction),
		CohesionStatus: classify(cohesion),
	}
}

// ComputeRatings - Compute для целых оценок
func ComputeRatings(r Ratings) Metrics {
	return Compute(FromRatings(r))
}

// Average усредняет каждую оценку по набору, пропуская отсутствующие значения
func Average(rs []Ratings) Inputs {
	pick := []func(Ratings) *int{
		func(r Ratings) *int { return r.TasksCompleted },
		func(r Ratings) *int { return r.WorkVolume },
		func(r Ratings) *int { return r.ProblemSolving },
		func(r Ratings) *int { return r.Communication },
		func(r Ratings) *int { return r.Leadership },
	}

	averages := make([]*decimal.Decimal, len(pick))
	for i, field := range pick {
		sum := decimal.Zero
		n := 0
		for _, r := range rs {
			if v := field(r); v != nil {
				sum = sum.Add(decimal.NewFromInt(int64(*v)))
				n++
			}
		}
		if n > 0 {
			avg := sum.Div(decimal.NewFromInt(int64(n)))
			averages[i] = &avg
		}
	}

	return Inputs{
		TasksCompleted: averages[0],
		WorkVolume:     averages[1],
		ProblemSolving: averages[2],
		Communication:  averages[3],
		Leadership:     averages[4],
	}
}

// Classify возвращает статус значения: <5 red, <6.5 amber, иначе green
func Classify(value *float64) Status {
	if value == nil {
		return ""
	}
	d := decimal.NewFromFloat(*value)
	return classify(&d)
}

// Round2 округляет до двух знаков: половина вверх на значении, умноженном на 100
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Mul(hundred).Add(half).Floor().Div(hundred)
}

// Staleness считает полные недели с даты окончания недели оценки
func Staleness(reviewDate, now time.Time) Freshness {
	weeks := int(now.Sub(reviewDate) / (7 * 24 * time.Hour))
	if weeks < 0 {
		weeks = 0
	}

	status := StatusRed
	switch {
	case weeks <= 1:
		status = StatusGreen
	case weeks <= 4:
		status = StatusAmber
	}
	return Freshness{Weeks: weeks, Status: status}
}

// WeekEnding возвращает пятницу ISO-недели, в которую попадает t (полночь UTC)
func WeekEnding(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, int(time.Friday)-weekday)
}

func IsWeekEnding(t time.Time) bool {
	return t.Weekday() == time.Friday
}

func mean(values ...*decimal.Decimal) *decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		if v == nil {
			return nil
		}
		sum = sum.Add(*v)
	}
	result := Round2(sum.Div(decimal.NewFromInt(int64(len(values)))))
	return &result
}

func classify(d *decimal.Decimal) Status {
	switch {
	case d == nil:
		return ""
	case d.LessThan(redBelow):
		return StatusRed
	case d.LessThan(amberBelow):
		return StatusAmber
	default:
		return StatusGreen
	}
}

func fromInt(v *int) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromInt(int64(*v))
	return &d
}

func toFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
