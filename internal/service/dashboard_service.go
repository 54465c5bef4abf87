package service

import (
	"time"

	"go-storefront-api/internal/repository"
)

// lowStockThreshold marks variants the back office should restock soon.
const lowStockThreshold = 10

type DashboardService interface {
	GetStats() (*repository.DashboardStats, error)
	GetSales(startDate, endDate time.Time) ([]repository.SalesByDay, error)
}

type dashboardService struct {
	orderRepo repository.OrderRepository
}

func NewDashboardService(orderRepo repository.OrderRepository) DashboardService {
	return &dashboardService{orderRepo: orderRepo}
}

func (s *dashboardService) GetStats() (*repository.DashboardStats, error) {
	return s.orderRepo.GetDashboardStats(lowStockThreshold)
}

func (s *dashboardService) GetSales(startDate, endDate time.Time) ([]repository.SalesByDay, error) {
	return s.orderRepo.GetSalesByDay(startDate, endDate)
}
