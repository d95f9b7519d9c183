package dialog

// Button actions. Each one is registered as a callback key by the bot.
const (
	ActionTeacher  = "teacher"
	ActionWeek     = "week"
	ActionToday    = "today"
	ActionTomorrow = "tomorrow"
	ActionDay      = "day"
	ActionBack     = "back"
)

// Actions lists every button action the dialog emits.
var Actions = []string{ActionTeacher, ActionWeek, ActionToday, ActionTomorrow, ActionDay, ActionBack}

// Button is one inline button. Payload is echoed back with Action on a tap.
type Button struct {
	Label   string
	Action  string
	Payload string
}

// Message is one outbound message. Edit asks to replace the message that
// carried the tapped button instead of sending a new one.
type Message struct {
	Text     string
	Keyboard [][]Button
	Edit     bool
}

// Output is the reaction to one event. Notice is a short transient answer
// to a button tap; Messages are delivered in order.
type Output struct {
	Notice   string
	Messages []Message
}

// User-visible copy.
const (
	TextEnterTeacher   = "Введите фамилию преподавателя"
	TextNotFound       = "Преподаватель не найден\nПопробуйте еще раз"
	TextAmbiguousEmpty = "Ошибка при определении ФИО. Повторите ввод изменив запрос, например введя фамилию вместо ФИО"
	TextTooShort       = "Слишком короткий запрос\n" + TextEnterTeacher
	TextChooseTeacher  = "Выберите преподавателя"
	TextChooseWeek     = "Выберите неделю"
	TextChooseDay      = "Выберите день недели"
	TextNoLessons      = "В этот день нет пар"
	TextInvalid        = "Неверный ввод"
	TextWeekUnknown    = "Не удалось определить текущую неделю"

	LabelToday     = "Сегодня"
	LabelTomorrow  = "Завтра"
	LabelBack      = "Назад"
	LabelWholeWeek = "Вся неделя"
	markDisabled   = "✖"
)
