package storage

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
)

// Seeder is the part of a Store that Seed writes through.
type Seeder interface {
	ListServices(ctx context.Context) ([]model.Service, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
	CreateService(ctx context.Context, s model.Service) (model.Service, error)
	CreateStaff(ctx context.Context, s model.Staff) (model.Staff, error)
}

// Seed loads the salon menu into an empty services table and the team
// into an empty staff table. Each table is checked on its own. It reports
// whether anything was written.
func Seed(ctx context.Context, s Seeder) (bool, error) {
	wrote := false

	services, err := s.ListServices(ctx)
	if err != nil {
		return false, fmt.Errorf("seed: list services: %w", err)
	}
	if len(services) == 0 {
		for _, svc := range SeedServices() {
			if _, err := s.CreateService(ctx, svc); err != nil {
				return wrote, fmt.Errorf("seed: service %q: %w", svc.Name, err)
			}
			wrote = true
		}
	}

	staff, err := s.ListStaff(ctx)
	if err != nil {
		return wrote, fmt.Errorf("seed: list staff: %w", err)
	}
	if len(staff) == 0 {
		for _, st := range SeedStaff() {
			if _, err := s.CreateStaff(ctx, st); err != nil {
				return wrote, fmt.Errorf("seed: staff %q: %w", st.Name, err)
			}
			wrote = true
		}
	}
	return wrote, nil
}

func SeedServices() []model.Service {
	deposit := func(s string) *model.Money {
		m := model.MustMoney(s)
		return &m
	}
	return []model.Service{
		{
			Name:                "Full Color & Style",
			Description:         "Complete hair transformation with professional coloring and styling",
			Price:               model.MustMoney("120.00"),
			Duration:            150,
			Category:            model.CategoryHair,
			RequiresDownPayment: true,
			DownPaymentAmount:   deposit("30.00"),
			ImageURL:            ptr("https://images.unsplash.com/photo-1562322140-8baeececf3df?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=200"),
		},
		{
			Name:                "Highlights & Lowlights",
			Description:         "Add dimension with professional highlighting techniques",
			Price:               model.MustMoney("90.00"),
			Duration:            120,
			Category:            model.CategoryHair,
			RequiresDownPayment: true,
			DownPaymentAmount:   deposit("25.00"),
			ImageURL:            ptr("https://images.unsplash.com/photo-1580618672591-eb180b1a973f?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=200"),
		},
		{
			Name:        "Gel Manicure",
			Description: "Long-lasting gel polish with cuticle care and nail shaping",
			Price:       model.MustMoney("45.00"),
			Duration:    60,
			Category:    model.CategoryNails,
			ImageURL:    ptr("https://images.unsplash.com/photo-1604654894610-df63bc536371?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=200"),
		},
		{
			Name:        "Nail Art & Design",
			Description: "Custom nail art with intricate designs and premium finishes",
			Price:       model.MustMoney("65.00"),
			Duration:    90,
			Category:    model.CategoryNails,
			ImageURL:    ptr("https://images.unsplash.com/photo-1610992015732-2449b76344bc?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=200"),
		},
	}
}

func SeedStaff() []model.Staff {
	return []model.Staff{
		{
			Name:        "Sarah Johnson",
			Title:       "Senior Stylist",
			Experience:  "8 years experience",
			ImageURL:    ptr("https://images.unsplash.com/photo-1595475207225-428b62bda831?ixlib=rb-4.0.3&auto=format&fit=crop&w=300&h=300"),
			Specialties: []string{"Color", "Highlights", "Styling"},
		},
		{
			Name:        "Mike Chen",
			Title:       "Color Specialist",
			Experience:  "6 years experience",
			ImageURL:    ptr("https://images.unsplash.com/photo-1582750433449-648ed127bb54?ixlib=rb-4.0.3&auto=format&fit=crop&w=300&h=300"),
			Specialties: []string{"Color", "Balayage", "Hair Treatment"},
		},
		{
			Name:        "Lisa Rodriguez",
			Title:       "Nail Artist",
			Experience:  "5 years experience",
			ImageURL:    ptr("https://images.unsplash.com/photo-1438761681033-6461ffad8d80?ixlib=rb-4.0.3&auto=format&fit=crop&w=300&h=300"),
			Specialties: []string{"Nail Art", "Gel Manicure", "Nail Design"},
		},
	}
}

func ptr[T any](v T) *T { return &v }
