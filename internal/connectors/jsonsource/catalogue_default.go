package jsonsource

// defaultCatalogueJSON ships a small demo catalogue so the dashboard works
// with zero configuration. Production deployments point APP_CREDITS_FILE or
// APP_CREDITS_URL at the real registry export.
const defaultCatalogueJSON = `[
  {"unic_id": "VCS-0987-2018-001", "project_name": "Rimba Raya Biodiversity Reserve", "vintage": 2018, "status": "Active"},
  {"unic_id": "VCS-0987-2019-002", "project_name": "Rimba Raya Biodiversity Reserve", "vintage": 2019, "status": "Retired"},
  {"unic_id": "VCS-0612-2019-014", "project_name": "Kariba Forest Protection", "vintage": 2019, "status": "Active"},
  {"unic_id": "VCS-0612-2020-031", "project_name": "Kariba Forest Protection", "vintage": 2020, "status": "Active"},
  {"unic_id": "GS-1104-2017-007", "project_name": "Gujarat Wind Power Bundle", "vintage": 2017, "status": "Retired"},
  {"unic_id": "GS-1104-2018-012", "project_name": "Gujarat Wind Power Bundle", "vintage": 2018, "status": "Active"},
  {"unic_id": "GS-2290-2020-003", "project_name": "Sichuan Household Biogas", "vintage": 2020, "status": "Active"},
  {"unic_id": "GS-2290-2021-009", "project_name": "Sichuan Household Biogas", "vintage": 2021, "status": "Active"},
  {"unic_id": "ACR-0458-2019-005", "project_name": "Delta Blue Carbon Mangroves", "vintage": 2019, "status": "Retired"},
  {"unic_id": "ACR-0458-2020-011", "project_name": "Delta Blue Carbon Mangroves", "vintage": 2020, "status": "Active"},
  {"unic_id": "CAR-1337-2016-002", "project_name": "Yurok Tribe Improved Forest Management", "vintage": 2016, "status": "Retired"},
  {"unic_id": "CAR-1337-2021-018", "project_name": "Yurok Tribe Improved Forest Management", "vintage": 2021, "status": "Active"}
]`
