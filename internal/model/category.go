package model

// Categories is the closed set of listing categories, in display order.
var Categories = []string{
	"Помогу с курсовой / дипломом",
	"Решу задачи по математике / физике / информатике",
	"Репетиторство",
	"Дизайн презентаций / постеров",
	"Программирование (сайты, боты, скрипты)",
	"Переводы (казахский/русский/английский и др.)",
	"Конспекты, шпаргалки, помощь перед экзаменом",
	"Поиск тиммейтов для проектов / хакатонов",
	"Аренда/поиск комнаты или соседа по общежитию",
}

func IsKnownCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
