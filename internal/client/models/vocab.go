package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMood       = errors.New("invalid mood")
	ErrInvalidWeather    = errors.New("invalid weather")
	ErrInvalidChildState = errors.New("invalid child state")
	ErrInvalidTheme      = errors.New("invalid theme")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Mood values are the wire values used by the backend.
type Mood string

const (
	MoodHappy   Mood = "愉快"
	MoodCalm    Mood = "平静"
	MoodSad     Mood = "沮丧"
	MoodExcited Mood = "兴奋"
	MoodTired   Mood = "疲劳"
)

type Weather string

const (
	WeatherSunny    Weather = "晴"
	WeatherCloudy   Weather = "多云"
	WeatherRainy    Weather = "雨"
	WeatherSnowy    Weather = "雪"
	WeatherOvercast Weather = "阴"
	WeatherWindy    Weather = "风"
)

type ChildState string

const (
	ChildActive        ChildState = "活跃"
	ChildTired         ChildState = "疲劳"
	ChildFocused       ChildState = "专注"
	ChildRelaxed       ChildState = "放松"
	ChildUncomfortable ChildState = "不适"
)

// SuggestionCategory classifies analysis suggestions.
type SuggestionCategory string

const (
	CategoryTravel        SuggestionCategory = "出行"
	CategoryHealth        SuggestionCategory = "健康"
	CategoryLearning      SuggestionCategory = "学习"
	CategoryEntertainment SuggestionCategory = "娱乐"
	CategoryOther         SuggestionCategory = "其他"
)

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// English labels for the closed vocabularies.
var (
	MoodLabels = map[Mood]string{
		MoodHappy: "happy", MoodCalm: "calm", MoodSad: "sad", MoodExcited: "excited", MoodTired: "tired",
	}
	WeatherLabels = map[Weather]string{
		WeatherSunny: "sunny", WeatherCloudy: "cloudy", WeatherRainy: "rainy",
		WeatherSnowy: "snowy", WeatherOvercast: "overcast", WeatherWindy: "windy",
	}
	ChildStateLabels = map[ChildState]string{
		ChildActive: "active", ChildTired: "tired", ChildFocused: "focused",
		ChildRelaxed: "relaxed", ChildUncomfortable: "uncomfortable",
	}
	CategoryLabels = map[SuggestionCategory]string{
		CategoryTravel: "travel", CategoryHealth: "health", CategoryLearning: "learning",
		CategoryEntertainment: "entertainment", CategoryOther: "other",
	}
)

// Valid reports whether m is empty (unset) or a known mood.
func (m Mood) Valid() bool {
	_, ok := MoodLabels[m]
	return m == "" || ok
}

func (w Weather) Valid() bool {
	_, ok := WeatherLabels[w]
	return w == "" || ok
}

func (c ChildState) Valid() bool {
	_, ok := ChildStateLabels[c]
	return c == "" || ok
}

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeAuto
}

// ParseMood accepts either a wire value or its English label.
func ParseMood(s string) (Mood, error) {
	return parseVocab(s, MoodLabels, ErrInvalidMood)
}

func ParseWeather(s string) (Weather, error) {
	return parseVocab(s, WeatherLabels, ErrInvalidWeather)
}

func ParseChildState(s string) (ChildState, error) {
	return parseVocab(s, ChildStateLabels, ErrInvalidChildState)
}

func ParseTheme(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTheme, s)
	}
	return t, nil
}

func parseVocab[T ~string](s string, labels map[T]string, errInvalid error) (T, error) {
	if s == "" {
		return "", nil
	}
	if _, ok := labels[T(s)]; ok {
		return T(s), nil
	}
	for v, label := range labels {
		if label == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", errInvalid, s)
}
