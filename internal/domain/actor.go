package domain

// Role — роль актора, от имени которого выполняется запрос к бэкенду.
type Role string

// Роли бизнес-сценария.
const (
	// RoleSafetyManager — менеджер по безопасности, инициирует
	// создание площадки, запросы на размещение крана и документы.
	RoleSafetyManager Role = "SAFETY_MANAGER"

	// RoleManufacturer — производитель, утверждает площадку.
	RoleManufacturer Role = "MANUFACTURER"

	// RoleOwner — владелец кранов, отвечает на запросы размещения
	// и назначает машиниста.
	RoleOwner Role = "OWNER"

	// RoleDriver — машинист крана, отмечает явку и подаёт документы.
	RoleDriver Role = "DRIVER"

	// RoleSystem — сентинел для запросов без учётных данных
	// (login, health, служебные endpoint'ы).
	RoleSystem Role = "SYSTEM"
)

// Roles возвращает бизнес-роли, для которых нужны сессии
// (без RoleSystem).
func Roles() []Role {
	return []Role{RoleSafetyManager, RoleManufacturer, RoleOwner, RoleDriver}
}

// Valid возвращает true для известной роли.
func (r Role) Valid() bool {
	switch r {
	case RoleSafetyManager, RoleManufacturer, RoleOwner, RoleDriver, RoleSystem:
		return true
	default:
		return false
	}
}

// Session — аутентифицированная сессия роли на бэкенде.
//
// Заполняется на этапе bootstrap (dev-login или /users/by-role)
// и далее только читается транспортным адаптером.
type Session struct {
	// ID — идентификатор пользователя (заголовок X-User-ID).
	ID string `json:"id"`

	// Token — bearer-токен (заголовок Authorization).
	Token string `json:"token"`

	// OrgID — организация пользователя, если есть
	// (заголовок X-Org-ID, пустая строка допустима).
	OrgID string `json:"org_id,omitempty"`

	// Email и Name — профиль из ответа login, для отображения.
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}
