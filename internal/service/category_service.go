package service

import "plannr/internal/model"

// CategoryCount is a category together with its open tasks.
type CategoryCount struct {
	Category model.Category
	Open     int
}

type CategoryService struct {
	tasks *TaskService
}

func NewCategoryService(tasks *TaskService) *CategoryService {
	return &CategoryService{tasks: tasks}
}

// List returns every category in display order with its open-task count.
func (s *CategoryService) List() []CategoryCount {
	out := make([]CategoryCount, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, CategoryCount{Category: c, Open: len(s.tasks.TasksByCategory(c))})
	}
	return out
}
