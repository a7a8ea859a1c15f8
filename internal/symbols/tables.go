package symbols

// latexTable maps backslash-prefixed LaTeX command names to Unicode.
var latexTable = map[string]string{
	// Greek, lowercase
	`\alpha`: "α", `\beta`: "β", `\gamma`: "γ", `\delta`: "δ", `\epsilon`: "ε",
	`\varepsilon`: "ε", `\zeta`: "ζ", `\eta`: "η", `\theta`: "θ", `\vartheta`: "ϑ",
	`\iota`: "ι", `\kappa`: "κ", `\lambda`: "λ", `\mu`: "μ", `\nu`: "ν",
	`\xi`: "ξ", `\pi`: "π", `\rho`: "ρ", `\sigma`: "σ", `\tau`: "τ",
	`\upsilon`: "υ", `\phi`: "φ", `\varphi`: "φ", `\chi`: "χ", `\psi`: "ψ",
	`\omega`: "ω",

	// Greek, uppercase
	`\Gamma`: "Γ", `\Delta`: "Δ", `\Theta`: "Θ", `\Lambda`: "Λ", `\Xi`: "Ξ",
	`\Pi`: "Π", `\Sigma`: "Σ", `\Upsilon`: "Υ", `\Phi`: "Φ", `\Psi`: "Ψ",
	`\Omega`: "Ω",

	// Operators
	`\times`: "×", `\div`: "÷", `\pm`: "±", `\mp`: "∓", `\cdot`: "·",
	`\circ`: "∘", `\ast`: "∗", `\star`: "⋆", `\oplus`: "⊕", `\otimes`: "⊗",

	// Relations
	`\le`: "≤", `\ge`: "≥", `\leq`: "≤", `\geq`: "≥", `\ne`: "≠", `\neq`: "≠",
	`\equiv`: "≡", `\approx`: "≈", `\sim`: "∼", `\simeq`: "≃", `\cong`: "≅",
	`\propto`: "∝", `\prec`: "≺", `\succ`: "≻", `\ll`: "≪", `\gg`: "≫",

	// Arrows
	`\to`: "→", `\rightarrow`: "→", `\leftarrow`: "←", `\gets`: "←",
	`\leftrightarrow`: "↔", `\Rightarrow`: "⇒", `\Leftarrow`: "⇐",
	`\Leftrightarrow`: "⇔", `\mapsto`: "↦", `\longrightarrow`: "⟶",
	`\longleftarrow`: "⟵", `\uparrow`: "↑", `\downarrow`: "↓",
	`\hookrightarrow`: "↪", `\twoheadrightarrow`: "↠",

	// Sets
	`\in`: "∈", `\notin`: "∉", `\ni`: "∋", `\subset`: "⊂", `\supset`: "⊃",
	`\subseteq`: "⊆", `\supseteq`: "⊇", `\cup`: "∪", `\cap`: "∩",
	`\setminus`: "∖", `\emptyset`: "∅", `\varnothing`: "∅",

	// Logic
	`\forall`: "∀", `\exists`: "∃", `\nexists`: "∄", `\land`: "∧", `\wedge`: "∧",
	`\lor`: "∨", `\vee`: "∨", `\lnot`: "¬", `\neg`: "¬", `\implies`: "⇒",
	`\iff`: "⇔", `\top`: "⊤", `\bot`: "⊥", `\vdash`: "⊢", `\models`: "⊨",

	// Calculus and big operators
	`\infty`: "∞", `\partial`: "∂", `\nabla`: "∇", `\sum`: "∑", `\prod`: "∏",
	`\coprod`: "∐", `\int`: "∫", `\oint`: "∮", `\sqrt`: "√",
	`\angle`: "∠", `\perp`: "⊥", `\parallel`: "∥",

	// Brackets
	`\langle`: "⟨", `\rangle`: "⟩", `\lceil`: "⌈", `\rceil`: "⌉",
	`\lfloor`: "⌊", `\rfloor`: "⌋",

	// Letterlike and dots
	`\ell`: "ℓ", `\hbar`: "ℏ", `\wp`: "℘", `\Re`: "ℜ", `\Im`: "ℑ",
	`\aleph`: "ℵ", `\ldots`: "…", `\cdots`: "⋯", `\vdots`: "⋮", `\ddots`: "⋱",
	`\N`: "ℕ", `\Z`: "ℤ", `\Q`: "ℚ", `\R`: "ℝ", `\C`: "ℂ",
}

// typstTable maps Typst math symbol names, including dotted variants, to Unicode.
var typstTable = map[string]string{
	// Greek, lowercase
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "iota": "ι", "kappa": "κ",
	"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π",
	"rho": "ρ", "sigma": "σ", "tau": "τ", "upsilon": "υ", "phi": "φ",
	"chi": "χ", "psi": "ψ", "omega": "ω",

	// Greek, uppercase
	"Alpha": "Α", "Beta": "Β", "Gamma": "Γ", "Delta": "Δ", "Epsilon": "Ε",
	"Zeta": "Ζ", "Eta": "Η", "Theta": "Θ", "Iota": "Ι", "Kappa": "Κ",
	"Lambda": "Λ", "Mu": "Μ", "Nu": "Ν", "Xi": "Ξ", "Pi": "Π",
	"Rho": "Ρ", "Sigma": "Σ", "Tau": "Τ", "Upsilon": "Υ", "Phi": "Φ",
	"Chi": "Χ", "Psi": "Ψ", "Omega": "Ω",

	// Blackboard sets
	"NN": "ℕ", "ZZ": "ℤ", "QQ": "ℚ", "RR": "ℝ", "CC": "ℂ",

	// Operators
	"times": "×", "div": "÷", "pm": "±", "mp": "∓",
	"sum": "∑", "prod": "∏", "integral": "∫",
	"partial": "∂", "infinity": "∞", "infty": "∞",
	"forall": "∀", "exists": "∃", "nexists": "∄",
	"emptyset": "∅", "in": "∈", "notin": "∉",
	"subset": "⊂", "supset": "⊃", "subseteq": "⊆", "supseteq": "⊇",
	"cup": "∪", "cap": "∩", "setminus": "∖",
	"wedge": "∧", "vee": "∨", "neg": "¬",
	"implies": "⇒", "iff": "⇔", "therefore": "∴", "because": "∵",
	"approx": "≈", "equiv": "≡", "neq": "≠", "leq": "≤", "geq": "≥",
	"ll": "≪", "gg": "≫", "prec": "≺", "succ": "≻",
	"sim": "∼", "simeq": "≃", "cong": "≅", "propto": "∝",
	"perp": "⊥", "parallel": "∥",
	"angle": "∠", "triangle": "△", "square": "□", "diamond": "⋄",
	"star": "⋆", "circ": "∘", "bullet": "•",
	"nabla": "∇", "sqrt": "√", "cbrt": "∛",
	"degree": "°", "prime": "′", "dprime": "″",
	"aleph": "ℵ", "beth": "ℶ", "gimel": "ℷ",

	// Arrows
	"arrow.r": "→", "arrow.l": "←", "arrow.t": "↑", "arrow.b": "↓",
	"arrow.l.r": "↔", "arrow.t.b": "↕",
	"Arrow.r": "⇒", "Arrow.l": "⇐", "Arrow.t": "⇑", "Arrow.b": "⇓",
	"Arrow.l.r": "⇔", "Arrow.t.b": "⇕",
	"arrow": "→", "larr": "←", "uarr": "↑", "darr": "↓",
	"harr": "↔", "lArr": "⇐", "rArr": "⇒", "hArr": "⇔",

	// Accents
	"tilde": "~", "hat": "^", "bar": "‾", "dot": "·", "ddot": "¨",
}
