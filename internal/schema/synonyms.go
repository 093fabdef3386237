package schema

import (
	"crashdash/internal/config"
	"crashdash/internal/domain"
)

// DefaultVersion identifies the built-in synonym table.
const DefaultVersion = "2024.1"

// SynonymRule maps alternate spellings of a column onto one canonical name.
type SynonymRule struct {
	Canonical string
	Aliases   []string
}

// SynonymTable is an ordered rule list. When a column matches several rules
// the first one wins.
type SynonymTable struct {
	Version string
	Rules   []SynonymRule
}

// DefaultSynonyms covers the Petrópolis municipal export, the DETRAN yearly
// exports and their English equivalents.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		Version: DefaultVersion,
		Rules: []SynonymRule{
			{Canonical: domain.ColOccurredAt, Aliases: []string{"data", "data_acidente", "data_do_acidente", "data_ocorrencia", "date", "accident_date"}},
			{Canonical: domain.ColTimeOfDay, Aliases: []string{"hora", "horario", "hora_acidente", "time", "hour"}},
			{Canonical: domain.ExtraWeekday, Aliases: []string{"dia_semana", "dia_da_semana", "day_of_week", "weekday"}},
			{Canonical: domain.ColLocality, Aliases: []string{"local", "localidade", "bairro", "logradouro", "endereco", "location", "place"}},
			{Canonical: domain.ColLocality, Aliases: []string{"municipio", "cidade", "municipality", "city"}},
			{Canonical: domain.ColCategory, Aliases: []string{"tipo_acidente", "tipo_de_acidente", "tipo", "classificacao", "accident_type"}},
			{Canonical: domain.ColWeather, Aliases: []string{"condicao_metereologica", "condicao_meteorologica", "condicoes_meteorologicas", "clima", "tempo", "weather"}},
			{Canonical: domain.ColGender, Aliases: []string{"sexo", "sexo_condutor", "sexo_vitima", "genero", "sex_of_driver", "sex_of_victim", "gender"}},
			{Canonical: domain.ColVehicleType, Aliases: []string{"tipo_veiculo", "tipo_de_veiculo", "veiculo", "vehicle_type", "vehicle"}},
			{Canonical: domain.ColLatitude, Aliases: []string{"lat"}},
			{Canonical: domain.ColLongitude, Aliases: []string{"lon", "lng", "long"}},
			{Canonical: domain.ColFatalities, Aliases: []string{"mortos", "obitos", "vitimas_fatais", "deaths", "fatalities"}},
			{Canonical: domain.ColMinorInjuries, Aliases: []string{"feridos_leves", "feridos_leve", "minor_injuries"}},
			{Canonical: domain.ColSevereInjuries, Aliases: []string{"feridos_graves", "feridos_grave", "severe_injuries"}},
			{Canonical: domain.ColPeopleInvolved, Aliases: []string{"pessoas", "pessoas_envolvidas", "people_involved"}},
			{Canonical: domain.ColVehiclesInvolved, Aliases: []string{"veiculos", "veiculos_envolvidos", "vehicles_involved"}},
			{Canonical: domain.ColDistanceMarker, Aliases: []string{"km", "marco_km", "quilometro"}},
		},
	}
}

// FromConfig builds the table for a session: configured rules first, then
// the defaults unless disabled. A table extended by config reports its
// version with a "+custom" suffix.
func FromConfig(c config.Schema) SynonymTable {
	var t SynonymTable
	for _, r := range c.Synonyms {
		t.Rules = append(t.Rules, SynonymRule{Canonical: NormalizeColumnName(r.Canonical), Aliases: r.Aliases})
	}
	if c.DisableDefaults {
		t.Version = "custom"
		return t
	}
	def := DefaultSynonyms()
	t.Rules = append(t.Rules, def.Rules...)
	t.Version = def.Version
	if len(c.Synonyms) > 0 {
		t.Version += "+custom"
	}
	return t
}

// Resolver answers canonical-name lookups for a table.
type Resolver struct {
	byKey map[string]string
}

// Resolver indexes the table. Each rule matches its canonical name and its
// aliases by FoldKey; an earlier rule keeps a key a later rule also lists.
func (t SynonymTable) Resolver() *Resolver {
	r := &Resolver{byKey: make(map[string]string)}
	add := func(key, canonical string) {
		if key == "" {
			return
		}
		if _, taken := r.byKey[key]; !taken {
			r.byKey[key] = canonical
		}
	}
	for _, rule := range t.Rules {
		add(FoldKey(rule.Canonical), rule.Canonical)
		for _, a := range rule.Aliases {
			add(FoldKey(a), rule.Canonical)
		}
	}
	return r
}

// Canonical returns the schema name for a raw column and whether a rule
// matched. Unmatched columns keep their normalized name.
func (r *Resolver) Canonical(raw string) (string, bool) {
	if c, ok := r.byKey[FoldKey(raw)]; ok {
		return c, true
	}
	return NormalizeColumnName(raw), false
}
