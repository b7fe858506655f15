package params

// PipelineName identifies the wrapped pipeline, e.g., in remote log paths
const PipelineName = "nf_nf_core_bactmap"

// Bactmap returns the parameter declarations of nf-core/bactmap.
// Declaration order is the order flags are passed to nextflow.
func Bactmap() *Registry {
	return MustRegistry(
		Descriptor{
			Name:         "input",
			Type:         Required(String),
			SectionTitle: "Input/output options",
			Description:  "Path to a sample sheet describing paths to input fastq files",
		},
		Descriptor{
			Name:        "outdir",
			Type:        Optional(OutputDir),
			Description: "The output directory where the results will be saved.",
		},
		Descriptor{
			Name:        "email",
			Type:        Optional(String),
			Description: "Email address for completion summary.",
		},
		Descriptor{
			Name:         "reference",
			Type:         Required(String),
			SectionTitle: "Compulsory parameters",
			Description:  "Path to a fasta file of the reference sequence",
		},
		Descriptor{
			Name:         "trim",
			Type:         Optional(Bool),
			Default:      true,
			SectionTitle: "Optional pipeline steps",
			Description:  "Trim reads",
		},
		Descriptor{
			Name:        "save_trimmed_fail",
			Type:        Optional(Bool),
			Description: "Saved failed read files after trimminng",
		},
		Descriptor{
			Name:        "adapter_file",
			Type:        Optional(String),
			Default:     "${baseDir}/assets/adapters.fas",
			Description: "path to file containing adapters in fasta format",
		},
		Descriptor{
			Name:        "subsampling_off",
			Type:        Optional(Bool),
			Description: "Turn off subsampling",
		},
		Descriptor{
			Name:        "subsampling_depth_cutoff",
			Type:        Optional(Int),
			Default:     100,
			Description: "Desired coverage depth when subsampling",
		},
		Descriptor{
			Name:        "genome_size",
			Type:        Optional(String),
			Description: "Specify genome size for subsampling rather than estimation using mash sketch",
		},
		Descriptor{
			Name:        "remove_recombination",
			Type:        Optional(Bool),
			Description: "Remove recombination using gubbins",
		},
		Descriptor{
			Name:        "non_GATC_threshold",
			Type:        Optional(Float),
			Default:     0.5,
			Description: "Maximum non GATC bases (i.e - and N) to allow in pseudogenome sequences",
		},
		Descriptor{
			Name:        "rapidnj",
			Type:        Optional(Bool),
			Description: "Build a tree using the RapidNJ neighbour-joining algorithm",
		},
		Descriptor{
			Name:        "fasttree",
			Type:        Optional(Bool),
			Description: "Build a tree using the FastTree approximate ML algorithm",
		},
		Descriptor{
			Name:        "iqtree",
			Type:        Optional(Bool),
			Description: "Build a tree using the IQ-TREE ML algorithm",
		},
		Descriptor{
			Name:        "raxmlng",
			Type:        Optional(Bool),
			Description: "Build a tree using the RAxML-NG ML algorithm",
		},
		Descriptor{
			Name:         "enable_conda",
			Type:         Optional(Bool),
			SectionTitle: "Generic options",
			Description:  "enable conda rather than use containers",
		},
		Descriptor{
			Name:        "validate_params",
			Type:        Optional(Bool),
			Default:     true,
			Description: "Boolean whether to validate parameters against the schema at runtime",
		},
		Descriptor{
			Name:        "show_hidden_params",
			Type:        Optional(Bool),
			Description: "Show all params when using `--help`",
		},
	)
}
