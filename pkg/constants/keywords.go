package constants

// Keywords maps a command concept to its group of interchangeable trigger
// words. A registration references one or more of these groups; every group
// must have at least one fuzzy match in the input for the callback to fire.
// Words are stored normalized (lowercase, no accents).
var Keywords = map[string][]string{
	"activate": {"activa", "activar", "activate", "add", "anade", "anadir", "deja", "dejale", "devuelve",
		"devuelvele", "enable", "encender", "enciende", "habilita", "habilitar", "permite"},
	"all":   {"all", "toda", "todas", "todo", "todos"},
	"audio": {"audio", "music", "musica", "sonido", "sound"},
	"ban":   {"ban", "banea", "banealo"},
	"bye": {"adios", "agur", "bye", "chao", "farewell", "goodbye", "hasta", "luego", "noches", "pronto",
		"taluego", "vemos", "vista", "voy"},
	"change": {"alter", "alternar", "alternate", "cambiar", "change", "default", "defecto", "edit", "editar",
		"exchange", "modificar", "modify", "swap", "switch", "turn"},
	"config": {"ajustar", "ajuste", "ajustes", "automatico", "automatic", "config", "configs", "configuracion",
		"configuration", "setting", "settings"},
	"deactivate": {"apaga", "apagar", "cancel", "cancela", "deactivate", "desactivar", "deshabilita",
		"deshabilitar", "disable", "prohibe", "quita", "remove"},
	"delete": {"borra", "borrado", "borres", "clear", "delete", "elimina", "limpia", "remove"},
	"hello":  {"alo", "buenas", "dias", "hello", "hey", "hi", "hola", "ola", "saludos", "tardes"},
	"help":   {"ayuda", "help"},
	"message": {"comentario", "comment", "mensaje", "message", "original"},
	"mute": {"calla", "calle", "cierra", "close", "mute", "mutea", "mutealo", "noise", "ruido", "shut",
		"silence", "silencia"},
	"permission": {"permiso", "permission"},
	"reset":      {"recover", "recovery", "recupera", "reinicia", "reset", "resetea", "restart"},
	"role":       {"rol", "role", "roles"},
	"show":       {"actual", "ensena", "estado", "how", "muestra", "show", "como"},
	"sound":      {"hablar", "hable", "micro", "microfono", "microphone", "sonido", "sound", "talk", "volumen"},
	"stop": {"acabar", "detener", "end", "expirar", "expire", "finalizar", "finish", "parar", "stop",
		"suspend", "suspender", "terminar", "terminate"},
	"thanks": {"gracia", "gracias", "grasia", "grasias", "grax", "thank", "thanks", "ty"},
	"unban":  {"desbanea", "unban"},
	"unmute": {"desilencia", "desmutea", "desmutealo", "unmute"},
	"user":   {"member", "miembro", "participant", "participante", "user", "usuario"},
}

// CommonWords is the stoplist removed from input before scoring. The
// resolver re-admits any stop word that fuzzily matches a keyword group, so
// over-stripping here is recoverable.
var CommonWords = map[string]struct{}{}

func init() {
	words := []string{
		// Spanish
		"a", "al", "algo", "ante", "bajo", "cabe", "con", "contra", "cual", "cuando", "de", "del", "desde",
		"donde", "durante", "e", "el", "ella", "ellas", "ellos", "en", "entre", "era", "eres", "es", "esa",
		"ese", "eso", "esta", "este", "esto", "fue", "ha", "haber", "hace", "hacia", "han", "hasta", "hay",
		"la", "las", "le", "les", "lo", "los", "mas", "me", "mi", "mis", "mucho", "muy", "ni", "nos", "o",
		"os", "otra", "otro", "para", "pero", "poco", "por", "porfavor", "porque", "que", "se", "segun",
		"ser", "si", "sin", "sobre", "son", "soy", "su", "sus", "te", "tras", "tu", "tus", "un", "una",
		"unas", "uno", "unos", "y", "ya", "yo",
		// English
		"about", "after", "again", "an", "and", "any", "are", "as", "at", "be", "because", "been", "before",
		"being", "but", "by", "can", "could", "did", "do", "does", "doing", "down", "for", "from", "had",
		"has", "have", "he", "her", "here", "him", "his", "how", "i", "if", "in", "into", "is", "it", "its",
		"just", "may", "my", "no", "not", "now", "of", "off", "on", "once", "only", "or", "our", "out",
		"over", "own", "please", "she", "should", "so", "some", "than", "that", "the", "their", "them",
		"then", "there", "these", "they", "this", "those", "through", "to", "too", "under", "until", "up",
		"very", "was", "we", "were", "what", "when", "where", "which", "while", "who", "why", "will",
		"with", "would", "you", "your",
	}
	for _, w := range words {
		CommonWords[w] = struct{}{}
	}
}

// Stock reply phrases. The engine picks one at random so the bot doesn't
// sound canned.
var (
	// NoPhrases are sent when a guard rejects a command
	NoPhrases = []string{
		"NO", "no", "no.", "nope", "va a ser que no", "claro que si guapi", "no me da la gana",
		"y si no?", "paso", "pasando", "ahora despues", "ahora en un rato",
	}

	// InterrogationPhrases are sent when a punishing command names nobody
	InterrogationPhrases = []string{
		"?", "que?", "que dise", "no entiendo", "no entender", "mi no entender", "ein?", "🤔", "🤨", "🧐",
	}

	// OutOfServicePhrases are sent while the bot is administratively down
	OutOfServicePhrases = []string{
		"Estoy fuera de servicio.", "No estoy disponible :(", "ahora mismo no puedo",
		"estoy malito, me están arreglando", "no me encuentro muy bien..", "😥", "😪", "😓",
	}

	// ExceptionPhrases prefix operator-visible error reports
	ExceptionPhrases = []string{
		"A ver como lo digo...", "Anda mira que error más bonito.", "Ha pasado esto:",
		"Han pasado cosas.", "He hecho pum", "Me rompí", "No funciono", "Toma error",
	}

	// SadEmojis garnish ambiguity apologies
	SadEmojis = []string{"😥", "😪", "😓", "😔", "😕", "🙁", "😞", "😢"}
)
