// Package places содержит статический справочник типов мест
// (репрезентативное подмножество Google Places Table A по всем 19
// категориям). Используется генератором синтетических визитов.
package places

// categories группирует типы мест по категориям Table A
var categories = map[string][]string{
	"Automotive": {
		"car_repair", "gas_station", "parking", "car_wash",
	},
	"Business": {
		"corporate_office", "farm",
	},
	"Culture": {
		"art_gallery", "museum", "performing_arts_theater", "monument",
	},
	"Education": {
		"library", "school", "university", "primary_school",
	},
	"Entertainment/Recreation": {
		"amusement_park", "bowling_alley", "community_center", "movie_theater",
		"national_park", "park", "zoo", "night_club", "casino", "concert_hall",
	},
	"Facilities": {
		"public_bathroom",
	},
	"Finance": {
		"bank", "atm",
	},
	"Food and Drink": {
		"restaurant", "cafe", "bakery", "bar", "coffee_shop", "fast_food_restaurant",
		"ice_cream_shop", "pizza_restaurant", "sushi_restaurant", "steak_house",
		"italian_restaurant", "chinese_restaurant", "mexican_restaurant",
	},
	"Geographical Areas": {
		"locality",
	},
	"Government": {
		"post_office", "courthouse", "city_hall", "police",
	},
	"Health and Wellness": {
		"hospital", "pharmacy", "dentist", "doctor", "gym", "spa",
	},
	"Housing": {
		"apartment_building", "apartment_complex",
	},
	"Lodging": {
		"hotel", "hostel", "campground", "motel",
	},
	"Natural Features": {
		"beach",
	},
	"Places of Worship": {
		"church", "mosque", "synagogue",
	},
	"Services": {
		"hair_salon", "laundry", "veterinary_care", "barber_shop", "beauty_salon",
	},
	"Shopping": {
		"supermarket", "grocery_store", "clothing_store", "shopping_mall",
		"convenience_store", "book_store", "electronics_store", "shoe_store",
	},
	"Sports": {
		"fitness_center", "stadium", "swimming_pool", "golf_course",
	},
	"Transportation": {
		"train_station", "bus_station", "airport", "subway_station",
	},
}

// categoryOrder фиксирует порядок категорий, чтобы каталог был
// детерминированным между запусками
var categoryOrder = []string{
	"Automotive", "Business", "Culture", "Education",
	"Entertainment/Recreation", "Facilities", "Finance", "Food and Drink",
	"Geographical Areas", "Government", "Health and Wellness", "Housing",
	"Lodging", "Natural Features", "Places of Worship", "Services",
	"Shopping", "Sports", "Transportation",
}

var (
	catalog        []string
	categoryByType map[string]string
)

func init() {
	categoryByType = make(map[string]string)
	for _, category := range categoryOrder {
		for _, placeType := range categories[category] {
			catalog = append(catalog, placeType)
			categoryByType[placeType] = category
		}
	}
}

// Catalog возвращает полный список типов мест в стабильном порядке.
// Возвращаемый срез нельзя изменять.
func Catalog() []string {
	return catalog
}

// Category возвращает категорию типа места; неизвестные типы дают "Other"
func Category(placeType string) string {
	if category, ok := categoryByType[placeType]; ok {
		return category
	}
	return "Other"
}
