package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"diet-planner/internal/catalog"
	"diet-planner/internal/models"
)

var requiredColumns = []string{"name", "category", "type", "calories", "protein", "carbs", "fat", "fiber", "price", "image"}

// parseFoods reads catalog rows from a CSV file with a header line.
// Rows without an id column get a generated one.
func parseFoods(r io.Reader) ([]models.FoodItem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var foods []models.FoodItem
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		item, err := parseRow(columns, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		foods = append(foods, item)
	}
	return foods, nil
}

func parseRow(columns map[string]int, record []string) (models.FoodItem, error) {
	get := func(name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var numErr error
	number := func(name string) float64 {
		v, err := strconv.ParseFloat(get(name), 64)
		if err != nil && numErr == nil {
			numErr = fmt.Errorf("invalid %s %q", name, get(name))
		}
		return v
	}

	item := models.FoodItem{
		ID:          get("id"),
		Name:        get("name"),
		Category:    models.Category(strings.ToLower(get("category"))),
		Type:        models.DietType(strings.ToLower(get("type"))),
		Calories:    math.Trunc(number("calories")),
		Protein:     number("protein"),
		Carbs:       number("carbs"),
		Fat:         number("fat"),
		Fiber:       number("fiber"),
		Price:       math.Trunc(number("price")),
		Image:       get("image"),
		SwiggyURL:   get("swiggyUrl"),
		ZomatoURL:   get("zomatoUrl"),
		Description: get("description"),
		Benefits:    catalog.SplitBenefits(get("benefits")),
	}
	if numErr != nil {
		return models.FoodItem{}, numErr
	}
	if !item.Category.Valid() {
		return models.FoodItem{}, fmt.Errorf("unknown category %q", item.Category)
	}
	if item.Type != models.Veg && item.Type != models.NonVeg {
		return models.FoodItem{}, fmt.Errorf("unknown type %q", item.Type)
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return item, nil
}
