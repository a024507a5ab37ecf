package service

import (
	"sort"
	"strings"
)

// Alerta is one detected drug-drug interaction.
type Alerta struct {
	PrincipioA string `json:"principio_a"`
	PrincipioB string `json:"principio_b"`
	Severidad  string `json:"severidad"` // leve | moderada | alta
	Nota       string `json:"nota"`
}

// Static interaction dictionary keyed by the sorted pair of normalized
// principios activos. Deliberately a keyword lookup, not a clinical
// knowledge base: it flags the combinations the pharmacy sees day to day.
var interacciones = map[string]Alerta{
	clavePar("ibuprofeno", "warfarina"):      {Severidad: "alta", Nota: "AINE potencia el efecto anticoagulante, riesgo de sangrado"},
	clavePar("aspirina", "warfarina"):        {Severidad: "alta", Nota: "doble efecto antiagregante/anticoagulante"},
	clavePar("ibuprofeno", "aspirina"):       {Severidad: "moderada", Nota: "el ibuprofeno interfiere con la cardioproteccion de la aspirina"},
	clavePar("enalapril", "ibuprofeno"):      {Severidad: "moderada", Nota: "AINE reduce el efecto antihipertensivo y afecta funcion renal"},
	clavePar("enalapril", "espironolactona"): {Severidad: "moderada", Nota: "riesgo de hiperpotasemia"},
	clavePar("metformina", "enalapril"):      {Severidad: "leve", Nota: "posible potenciacion hipoglucemiante, controlar glucemia"},
	clavePar("omeprazol", "clopidogrel"):     {Severidad: "alta", Nota: "omeprazol reduce la activacion del clopidogrel"},
	clavePar("simvastatina", "amiodarona"):   {Severidad: "alta", Nota: "riesgo de miopatia, limitar dosis de simvastatina"},
	clavePar("levotiroxina", "omeprazol"):    {Severidad: "leve", Nota: "menor absorcion de levotiroxina, separar tomas"},
	clavePar("alcohol", "metronidazol"):      {Severidad: "alta", Nota: "efecto disulfiram"},
	clavePar("fluoxetina", "tramadol"):       {Severidad: "alta", Nota: "riesgo de sindrome serotoninergico"},
	clavePar("diclofenac", "warfarina"):      {Severidad: "alta", Nota: "AINE potencia el efecto anticoagulante, riesgo de sangrado"},
}

type InteraccionesService interface {
	// Verificar checks every unordered pair of the given principios
	// activos against the dictionary.
	Verificar(principios []string) []Alerta
}

type interaccionesService struct{}

func NewInteraccionesService() InteraccionesService { return &interaccionesService{} }

func (s *interaccionesService) Verificar(principios []string) []Alerta {
	normalizados := make([]string, 0, len(principios))
	vistos := make(map[string]bool)
	for _, p := range principios {
		n := strings.ToLower(strings.TrimSpace(p))
		if n == "" || vistos[n] {
			continue
		}
		vistos[n] = true
		normalizados = append(normalizados, n)
	}

	var alertas []Alerta
	for i := 0; i < len(normalizados); i++ {
		for j := i + 1; j < len(normalizados); j++ {
			if a, ok := interacciones[clavePar(normalizados[i], normalizados[j])]; ok {
				a.PrincipioA = normalizados[i]
				a.PrincipioB = normalizados[j]
				alertas = append(alertas, a)
			}
		}
	}
	return alertas
}

func clavePar(a, b string) string {
	par := []string{a, b}
	sort.Strings(par)
	return par[0] + "|" + par[1]
}
