package plans

// DefaultVersion is the version of the built-in catalog.
const DefaultVersion = 1

func brl(centavos int64) Money { return Money{Amount: centavos, Currency: "BRL"} }

// DefaultPlans returns the built-in plan set used when no external catalog is
// configured.
func DefaultPlans() []Plan {
	return []Plan{
		{
			ID:          PlanFree,
			Name:        "Gratuito",
			Description: "Para quem está começando a anunciar",
			Limits: map[Resource]Limit{
				ResourceVehicles:         Limited(3),
				ResourceFeaturedVehicles: Limited(0),
				ResourceStorageMB:        Limited(500),
				ResourceExternalCalls:    Limited(100),
			},
			Features: []Feature{FeatureWhatsAppContact},
			Public:   true,
			Price:    brl(0),
			Interval: IntervalNone,
		},
		{
			ID:          PlanBasic,
			Name:        "Básico",
			Description: "Para lojistas com estoque pequeno",
			Limits: map[Resource]Limit{
				ResourceVehicles:         Limited(15),
				ResourceFeaturedVehicles: Limited(2),
				ResourceStorageMB:        Limited(2048),
				ResourceExternalCalls:    Limited(1000),
			},
			Features:  []Feature{FeatureWhatsAppContact, FeatureReports},
			Public:    true,
			TrialDays: 7,
			Price:     brl(4990),
			Interval:  IntervalMonthly,
		},
		{
			ID:          PlanPremium,
			Name:        "Premium",
			Description: "Para revendas em crescimento",
			Limits: map[Resource]Limit{
				ResourceVehicles:         Limited(50),
				ResourceFeaturedVehicles: Limited(10),
				ResourceStorageMB:        Limited(10240),
				ResourceExternalCalls:    Limited(10000),
			},
			Features: []Feature{
				FeatureWhatsAppContact, FeatureReports, FeatureAgencyPage,
				FeatureFinancingSimulator,
			},
			Public:    true,
			TrialDays: 7,
			Price:     brl(9990),
			Interval:  IntervalMonthly,
		},
		{
			ID:          PlanPremiumPlus,
			Name:        "Premium Plus",
			Description: "Estoque sem limite e destaque ampliado",
			Limits: map[Resource]Limit{
				ResourceVehicles:         Unlimited(),
				ResourceFeaturedVehicles: Limited(30),
				ResourceStorageMB:        Limited(51200),
				ResourceExternalCalls:    Unlimited(),
			},
			Features: []Feature{
				FeatureWhatsAppContact, FeatureReports, FeatureAgencyPage,
				FeatureFinancingSimulator, FeatureAnalytics,
			},
			Public:    true,
			TrialDays: 14,
			Price:     brl(19990),
			Interval:  IntervalMonthly,
		},
		{
			ID:          PlanEnterprise,
			Name:        "Empresarial",
			Description: "Para grupos e redes de concessionárias",
			Limits: map[Resource]Limit{
				ResourceVehicles:         Unlimited(),
				ResourceFeaturedVehicles: Limited(100),
				ResourceStorageMB:        Limited(204800),
				ResourceExternalCalls:    Unlimited(),
			},
			Features: []Feature{
				FeatureWhatsAppContact, FeatureReports, FeatureAgencyPage,
				FeatureFinancingSimulator, FeatureAnalytics, FeatureCustomDomain,
				FeaturePrioritySupport,
			},
			Public:   false,
			Price:    brl(49990),
			Interval: IntervalMonthly,
		},
		{
			ID:          PlanUnlimited,
			Name:        "Ilimitado",
			Description: "Plano concedido manualmente pela equipe",
			Limits: map[Resource]Limit{
				ResourceVehicles:         Unlimited(),
				ResourceFeaturedVehicles: Limited(500),
				ResourceStorageMB:        Unlimited(),
				ResourceExternalCalls:    Unlimited(),
			},
			Features: []Feature{
				FeatureWhatsAppContact, FeatureReports, FeatureAgencyPage,
				FeatureFinancingSimulator, FeatureAnalytics, FeatureCustomDomain,
				FeaturePrioritySupport,
			},
			Public:   false,
			Price:    brl(0),
			Interval: IntervalNone,
		},
	}
}

// DefaultCatalog returns the built-in catalog. It panics if the built-in
// definitions are invalid.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultVersion, PlanFree, DefaultPlans()...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultSource returns a Source serving DefaultCatalog.
func DefaultSource() Source {
	return NewInMemSource(DefaultCatalog())
}
