package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"studykwork/internal/model"
	"studykwork/internal/repository"
)

const (
	DemoEmail    = "demo@studykwork.kz"
	DemoPassword = "123456"
)

type demoListing struct {
	title       string
	category    int
	price       int
	description string
	phone       string
	whatsapp    string
	telegram    string
	image       string
}

var demoListings = []demoListing{
	{
		title:       "Помогу с курсовой по маркетингу за 3 дня",
		category:    0,
		price:       18000,
		description: "Структурирую курсовую, оформлю по ГОСТ, добавлю графики и список литературы. Опыт 3 года.",
		phone:       "+7 777 111 22 33",
		whatsapp:    "+7 777 111 22 33",
		telegram:    "@aidan",
		image:       "https://images.unsplash.com/photo-1522071820081-009f0129c71c?auto=format&fit=crop&w=1200&q=60",
	},
	{
		title:       "Решу задачи по высшей математике и физике",
		category:    1,
		price:       12000,
		description: "Вышмат, линейка, интегралы, сопромат. Онлайн и офлайн, проверка перед сдачей.",
		phone:       "+7 747 000 44 11",
		telegram:    "@mathhelper",
		image:       "https://images.unsplash.com/photo-1509228468518-180dd4864904?auto=format&fit=crop&w=1200&q=60",
	},
	{
		title:       "Репетитор по IELTS / Speaking club",
		category:    2,
		price:       8500,
		description: "Подготовка к IELTS, разговорный английский. Свой материал и пробные тесты.",
		phone:       "+7 700 999 88 77",
		whatsapp:    "+7 700 999 88 77",
		image:       "https://images.unsplash.com/photo-1523580846011-d3a5bc25702b?auto=format&fit=crop&w=1200&q=60",
	},
	{
		title:       "Дизайн презентаций и постеров за ночь",
		category:    3,
		price:       9000,
		description: "Чистая типографика, иллюстрации, подберу цветовую схему. Делаю интро-анимации.",
		telegram:    "@slidequeen",
		image:       "https://images.unsplash.com/photo-1523475472560-d2df97ec485c?auto=format&fit=crop&w=1200&q=60",
	},
	{
		title:       "Напишу Telegram-бота для автоматизации",
		category:    4,
		price:       25000,
		description: "Python/Node.js боты, оплаты, парсеры, интеграции с Google Sheets. Поддержка после сдачи.",
		phone:       "+7 708 555 12 12",
		telegram:    "@botdev",
		image:       "https://images.unsplash.com/photo-1545239351-1141bd82e8a6?auto=format&fit=crop&w=1200&q=60",
	},
	{
		title:       "Сделаю конспект + шпаргалку перед экзаменом",
		category:    6,
		price:       6000,
		description: "Быстро собираю по лекциям и книгам, делаю короткий чеклист и карточки.",
		whatsapp:    "+7 701 123 45 66",
		image:       "https://images.unsplash.com/photo-1503676260728-1c00da094a0b?auto=format&fit=crop&w=1200&q=60",
	},
	{
		title:       "Ищу тиммейтов для хакатона Astana Hub",
		category:    7,
		price:       0,
		description: "Нужны фронтендер и дизайнер. Проект: сервис для отслеживания занятий. Призовой фонд есть.",
		telegram:    "@teamlead",
		image:       "https://images.unsplash.com/photo-1504384308090-c894fdcc538d?auto=format&fit=crop&w=1200&q=60",
	},
	{
		title:       "Комната в общежитии, ищу соседа",
		category:    8,
		price:       35000,
		description: "Тихая комната, удобное расположение, интернет. Ищу спокойного соседа, желательно ИТ.",
		phone:       "+7 777 999 77 00",
		whatsapp:    "+7 777 999 77 00",
		image:       "https://images.unsplash.com/photo-1505691938895-1758d7feb511?auto=format&fit=crop&w=1200&q=60",
	},
}

// SeedDemo fills an empty listings table with the demo account and its sample ads.
// It is a no-op once any listing exists. The demo user is reused if already registered.
func SeedDemo(ctx context.Context, userRepo *repository.UserRepository, listingRepo *repository.ListingRepository, university string) error {
	count, err := listingRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	owner, err := userRepo.GetByEmail(ctx, DemoEmail)
	if err != nil {
		return err
	}
	if owner == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash demo password failed: %w", err)
		}
		owner = &model.User{
			Name:         "Demo User",
			Email:        DemoEmail,
			University:   university,
			PasswordHash: string(hash),
		}
		if err := userRepo.Create(ctx, owner); err != nil {
			return err
		}
	}

	for _, demo := range demoListings {
		listing := &model.Listing{
			UserID:          owner.ID,
			Title:           demo.title,
			Category:        model.Categories[demo.category],
			Price:           demo.price,
			University:      university,
			Description:     demo.description,
			ContactPhone:    demo.phone,
			ContactWhatsApp: demo.whatsapp,
			ContactTelegram: demo.telegram,
			Images:          []model.ListingImage{{URL: demo.image}},
		}
		if err := listingRepo.Create(ctx, listing); err != nil {
			return err
		}
	}

	slog.InfoContext(ctx, "demo data seeded", "user", DemoEmail, "listings", len(demoListings))
	return nil
}
